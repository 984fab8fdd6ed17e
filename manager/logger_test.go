// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"bytes"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

var _ = Describe("Logger wrappers", func() {
	It("Should log through slog with context", func() {
		buf := &bytes.Buffer{}
		log := NewSlogLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

		log.With("archive", "pak01.vpk").Info("Extracting out/file1.txt", "size", 10)
		Expect(buf.String()).To(ContainSubstring(`msg="Extracting out/file1.txt" archive=pak01.vpk size=10`))
	})

	It("Should send errors to the error logger", func() {
		out := &bytes.Buffer{}
		errs := &bytes.Buffer{}
		log := NewSplitSlogLogger(slog.New(slog.NewTextHandler(out, nil)), slog.New(slog.NewTextHandler(errs, nil)))

		scoped := log.With("archive", "pak01.vpk")
		scoped.Info("Extracting out/file1.txt")
		scoped.Warn("pak01.vpk completed with errors")
		scoped.Error("Could not extract entry", "entry", "../evil.txt")

		Expect(out.String()).To(ContainSubstring(`msg="Extracting out/file1.txt" archive=pak01.vpk`))
		Expect(out.String()).To(ContainSubstring(`msg="pak01.vpk completed with errors"`))
		Expect(out.String()).ToNot(ContainSubstring("Could not extract entry"))
		Expect(errs.String()).To(ContainSubstring(`level=ERROR msg="Could not extract entry" archive=pak01.vpk entry=../evil.txt`))
		Expect(errs.String()).ToNot(ContainSubstring("Extracting"))
	})

	It("Should log through logrus as json", func() {
		buf := &bytes.Buffer{}
		l := logrus.New()
		l.SetOutput(buf)
		l.SetFormatter(&logrus.JSONFormatter{})

		log := NewLogrusLogger(logrus.NewEntry(l))
		log.With("archive", "pak01.vpk").Warn("Completed with errors", "entry_errors", 2, "dangling")

		var entry map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
		Expect(entry).To(HaveKeyWithValue("msg", "Completed with errors"))
		Expect(entry).To(HaveKeyWithValue("level", "warning"))
		Expect(entry).To(HaveKeyWithValue("archive", "pak01.vpk"))
		Expect(entry).To(HaveKeyWithValue("entry_errors", BeNumerically("==", 2)))
	})
})
