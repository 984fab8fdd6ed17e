// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"go.uber.org/mock/gomock"

	"github.com/choria-io/extractvpk/model"
	"github.com/choria-io/extractvpk/model/modelmocks"
)

var _ = Describe("DirectorySessionStore", func() {
	var (
		mockCtrl *gomock.Controller
		logger   *modelmocks.MockLogger
		writer   *modelmocks.MockLogger
		fs       afero.Fs
		dir      string
		store    *DirectorySessionStore
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		logger = modelmocks.NewMockLogger(mockCtrl)
		writer = modelmocks.NewMockLogger(mockCtrl)

		logger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
		logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
		logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

		fs = afero.NewMemMapFs()
		dir = "/var/lib/extractvpk/session"
		Expect(fs.MkdirAll(dir, 0755)).To(Succeed())

		var err error
		store, err = NewDirectorySessionStore(fs, dir, logger, writer)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	exists := func(p string) bool {
		ok, err := afero.Exists(fs, p)
		Expect(err).ToNot(HaveOccurred())
		return ok
	}

	Describe("NewDirectorySessionStore", func() {
		It("Should require a directory", func() {
			_, err := NewDirectorySessionStore(fs, "", logger, writer)
			Expect(err).To(MatchError(ContainSubstring("cannot be empty")))
		})

		It("Should create an absolute path from relative directory", func() {
			relStore, err := NewDirectorySessionStore(fs, "./relative/path", logger, writer)
			Expect(err).ToNot(HaveOccurred())
			Expect(filepath.IsAbs(relStore.Directory())).To(BeTrue())
		})

		It("Should clean the directory path", func() {
			dirtyStore, err := NewDirectorySessionStore(fs, "/some//path/../clean/./path", logger, writer)
			Expect(err).ToNot(HaveOccurred())
			Expect(dirtyStore.Directory()).To(Equal("/some/clean/path"))
		})
	})

	Describe("StartSession", func() {
		It("Should create the directory if it doesn't exist", func() {
			newStore, err := NewDirectorySessionStore(fs, "/srv/newsession", logger, writer)
			Expect(err).ToNot(HaveOccurred())
			Expect(exists("/srv/newsession")).To(BeFalse())

			Expect(newStore.StartSession(2)).To(Succeed())

			events, err := newStore.AllEvents()
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].(*model.SessionStartEvent).Jobs).To(Equal(2))
		})
	})

	Describe("RecordEvent", func() {
		It("Should write valid events to files", func() {
			event := extractionEvent("maps", model.OutcomeComplete, 3)
			Expect(store.RecordEvent(event)).To(Succeed())

			data, err := afero.ReadFile(fs, filepath.Join(dir, event.EventID+".event"))
			Expect(err).ToNot(HaveOccurred())

			var readEvent model.ExtractionEvent
			Expect(json.Unmarshal(data, &readEvent)).To(Succeed())
			Expect(readEvent.Job).To(Equal("maps"))
			Expect(readEvent.Outcome).To(Equal(model.OutcomeComplete))
			Expect(readEvent.Result.Extracted).To(Equal(3))
		})

		It("Should fail when directory doesn't exist", func() {
			newStore, err := NewDirectorySessionStore(fs, "/srv/nonexistent", logger, writer)
			Expect(err).ToNot(HaveOccurred())

			err = newStore.RecordEvent(extractionEvent("maps", model.OutcomeComplete, 1))
			Expect(err).To(MatchError(model.ErrSessionStoreMissing))
		})

		DescribeTable("Should reject event IDs that are not ksuids",
			func(id string) {
				event := extractionEvent("maps", model.OutcomeComplete, 1)
				event.EventID = id

				err := store.RecordEvent(event)
				Expect(err).To(MatchError(ContainSubstring("invalid event ID")))

				files, err := afero.ReadDir(fs, dir)
				Expect(err).ToNot(HaveOccurred())
				Expect(files).To(BeEmpty())
			},
			Entry("path traversal", "../../../etc/passwd"),
			Entry("absolute path", "/tmp/malicious"),
			Entry("path separators", "subdir/malicious"),
			Entry("dot", "."),
			Entry("dot dot", ".."),
			Entry("empty", ""),
		)

		It("Should fail on read only filesystems", func() {
			ro, err := NewDirectorySessionStore(afero.NewReadOnlyFs(fs), dir, logger, writer)
			Expect(err).ToNot(HaveOccurred())

			Expect(ro.RecordEvent(extractionEvent("maps", model.OutcomeComplete, 1))).ToNot(Succeed())
		})
	})

	Describe("EventsForJob", func() {
		It("Should return events for a specific job in time order", func() {
			Expect(store.RecordEvent(extractionEvent("maps", model.OutcomeComplete, 1))).To(Succeed())
			Expect(store.RecordEvent(extractionEvent("maps", model.OutcomeFailed, 0))).To(Succeed())
			Expect(store.RecordEvent(extractionEvent("sounds", model.OutcomeComplete, 1))).To(Succeed())

			events, err := store.EventsForJob("maps")
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Job).To(Equal("maps"))
			Expect(events[0].EventID < events[1].EventID).To(BeTrue())
		})

		It("Should return empty slice when directory doesn't exist", func() {
			newStore, err := NewDirectorySessionStore(fs, "/srv/nonexistent", logger, writer)
			Expect(err).ToNot(HaveOccurred())

			events, err := newStore.EventsForJob("maps")
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(BeEmpty())
		})

		It("Should skip corrupted and unknown event files", func() {
			Expect(store.RecordEvent(extractionEvent("maps", model.OutcomeComplete, 1))).To(Succeed())

			logger.EXPECT().Error("Failed to parse event type", gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(1)
			Expect(afero.WriteFile(fs, filepath.Join(dir, "corrupted.event"), []byte("invalid json"), 0644)).To(Succeed())
			Expect(afero.WriteFile(fs, filepath.Join(dir, "other.event"), []byte(`{"protocol":"io.choria.other"}`), 0644)).To(Succeed())
			Expect(afero.WriteFile(fs, filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)).To(Succeed())

			events, err := store.EventsForJob("maps")
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(1))
		})
	})

	Describe("StopSession", func() {
		It("Should summarize and optionally remove the session", func() {
			Expect(store.StartSession(2)).To(Succeed())
			Expect(store.RecordEvent(extractionEvent("maps", model.OutcomeComplete, 3))).To(Succeed())
			Expect(store.RecordEvent(extractionEvent("sounds", model.OutcomeFailed, 0))).To(Succeed())

			summary, err := store.StopSession(true)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.TotalRuns).To(Equal(2))
			Expect(summary.CompleteRuns).To(Equal(1))
			Expect(summary.FailedRuns).To(Equal(1))
			Expect(summary.ExtractedFiles).To(Equal(3))
			Expect(exists(dir)).To(BeFalse())
		})
	})
})
