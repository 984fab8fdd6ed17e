// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"errors"
	"hash/crc32"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/choria-io/extractvpk/model"
)

func TestMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Archive/Memory")
}

var _ = Describe("Memory Archive", func() {
	var archive *Archive

	BeforeEach(func() {
		archive = NewArchive().
			Add("file1.txt", []byte("one")).
			Add("models/props/Barrel.MDL", []byte("mdl")).
			Add("sound/ui/beep.wav", []byte("wav"))
	})

	It("Should group entries by lower case extension", func() {
		entries := archive.Entries()
		Expect(entries).To(HaveLen(3))
		Expect(entries).To(HaveKey("txt"))
		Expect(entries).To(HaveKey("mdl"))
		Expect(entries).To(HaveKey("wav"))

		e := entries["mdl"][0]
		Expect(e.FullPath()).To(Equal("models/props/Barrel.MDL"))
		Expect(e.FileName()).To(Equal("Barrel.MDL"))
		Expect(e.Extension()).To(Equal("mdl"))
		Expect(e.Size()).To(Equal(int64(3)))

		ce, ok := e.(model.ChecksummedEntry)
		Expect(ok).To(BeTrue())
		Expect(ce.CRC32()).To(Equal(crc32.ChecksumIEEE([]byte("mdl"))))
	})

	It("Should read copies of the entry data", func() {
		e := archive.Entries()["txt"][0]
		data, err := archive.ReadEntry(e, false)
		Expect(err).ToNot(HaveOccurred())
		Expect(data).To(Equal([]byte("one")))

		data[0] = 'X'
		data, err = archive.ReadEntry(e, true)
		Expect(err).ToNot(HaveOccurred())
		Expect(data).To(Equal([]byte("one")))
		Expect(archive.Reads()).To(Equal(2))
	})

	It("Should simulate read failures", func() {
		archive.FailRead("file1.txt", errors.New("bad sector"))
		_, err := archive.ReadEntry(archive.Entries()["txt"][0], false)
		Expect(err).To(MatchError("bad sector"))

		archive.PanicOnRead("sound/ui/beep.wav")
		Expect(func() { archive.ReadEntry(archive.Entries()["wav"][0], false) }).To(Panic())
	})

	It("Should record stored checksums", func() {
		archive.AddWithChecksum("broken.txt", []byte("data"), 1)
		for _, e := range archive.Entries()["txt"] {
			if e.FullPath() == "broken.txt" {
				Expect(e.(model.ChecksummedEntry).CRC32()).To(Equal(uint32(1)))
			}
		}
	})

	It("Should count closes", func() {
		Expect(archive.Close()).To(Succeed())
		Expect(archive.Closes()).To(Equal(1))
	})
})

var _ = Describe("Memory Opener", func() {
	It("Should open registered archives", func() {
		a := NewArchive().Add("a.txt", nil)
		opener := NewOpener().Register("/srv/pak01_dir.vpk", a)

		res, err := opener.Open("/srv/pak01_dir.vpk")
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(BeIdenticalTo(a))

		_, err = opener.Open("/srv/missing.vpk")
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("Should simulate open failures", func() {
		opener := NewOpener().FailOpen("/srv/bad.vpk", errors.New("bad header"))
		_, err := opener.Open("/srv/bad.vpk")
		Expect(err).To(MatchError("bad header"))
	})
})
