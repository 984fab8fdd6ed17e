// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package jobs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"go.uber.org/mock/gomock"

	"github.com/choria-io/extractvpk/fetch"
	"github.com/choria-io/extractvpk/model"
	"github.com/choria-io/extractvpk/model/modelmocks"
	"github.com/choria-io/extractvpk/session"
)

var _ = Describe("Runner", func() {
	var (
		mockctl *gomock.Controller
		logger  *modelmocks.MockLogger
		mgr     *modelmocks.MockExtractor
		fs      afero.Fs
		store   *session.MemorySessionStore
		ctx     context.Context

		mu        sync.Mutex
		extracted []model.ExtractRequest
	)

	newRunner := func(opts ...Option) *Runner {
		r, err := NewRunner(mgr, logger, opts...)
		Expect(err).ToNot(HaveOccurred())
		return r
	}

	// extractRecorder records requests and their events the way the manager does
	extractRecorder := func(delay time.Duration) func(context.Context, model.ExtractRequest, model.Logger) (model.Outcome, *model.ExtractResult, error) {
		return func(_ context.Context, req model.ExtractRequest, _ model.Logger) (model.Outcome, *model.ExtractResult, error) {
			time.Sleep(delay)

			mu.Lock()
			extracted = append(extracted, req)
			mu.Unlock()

			res := &model.ExtractResult{Outcome: model.OutcomeComplete, Expected: 1, Extracted: 1}
			Expect(store.RecordEvent(model.NewExtractionEvent(req.Name, req, model.OutcomeComplete, res, nil))).To(Succeed())

			return model.OutcomeComplete, res, nil
		}
	}

	BeforeEach(func() {
		mockctl = gomock.NewController(GinkgoT())
		logger = modelmocks.NewLogger(mockctl)
		mgr = modelmocks.NewMockExtractor(mockctl)
		fs = afero.NewMemMapFs()
		ctx = context.Background()
		extracted = nil

		var err error
		store, err = session.NewMemorySessionStore(logger)
		Expect(err).ToNot(HaveOccurred())

		mgr.EXPECT().Logger("component", "jobs").Return(logger, nil).AnyTimes()
		mgr.EXPECT().Filesystem().Return(fs).AnyTimes()
		mgr.EXPECT().SessionStore().Return(store).AnyTimes()
	})

	AfterEach(func() {
		mockctl.Finish()
	})

	Describe("NewRunner", func() {
		It("Should default concurrency", func() {
			r := newRunner()
			Expect(r.concurrency).To(BeNumerically(">", 0))
			Expect(r.downloader).ToNot(BeNil())
			Expect(r.stager).ToNot(BeNil())
		})

		It("Should reject negative concurrency", func() {
			_, err := NewRunner(mgr, logger, WithConcurrency(-1))
			Expect(err).To(MatchError("concurrency must not be negative"))
		})
	})

	Describe("chainJobs", func() {
		chainNames := func(jobs []model.ExtractJob) [][]string {
			var names [][]string
			for _, chain := range chainJobs(jobs) {
				var n []string
				for _, job := range chain {
					n = append(n, job.Name)
				}
				names = append(names, n)
			}

			return names
		}

		It("Should group jobs by output keeping order", func() {
			Expect(chainNames([]model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Output: "/out/one"},
				{Name: "b", Archive: "/srv/b.vpk", Output: "/out/two"},
				{Name: "c", Archive: "/srv/c.vpk", Output: "/out/one/"},
				{Name: "d", Archive: "/srv/d.vpk", Output: "/out//two"},
				{Name: "e", Archive: "/srv/e.vpk", Output: "/out/three"},
			})).To(Equal([][]string{{"a", "c"}, {"b", "d"}, {"e"}}))
		})

		It("Should chain nested outputs", func() {
			Expect(chainNames([]model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Output: "/out/sub"},
				{Name: "b", Archive: "/srv/b.vpk", Output: "/other"},
				{Name: "c", Archive: "/srv/c.vpk", Output: "/out"},
				{Name: "d", Archive: "/srv/d.vpk", Output: "/out/sub/deeper"},
				{Name: "e", Archive: "/srv/e.vpk", Output: "/outside"},
			})).To(Equal([][]string{{"a", "c", "d"}, {"b"}, {"e"}}))
		})

		It("Should chain jobs sharing an archive", func() {
			Expect(chainNames([]model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Url: "https://example.net/a.vpk", Output: "/out/a"},
				{Name: "b", Archive: "/srv/b.vpk", Output: "/out/b"},
				{Name: "c", Archive: "/srv//a.vpk", Url: "https://example.net/a.vpk", Output: "/out/c"},
			})).To(Equal([][]string{{"a", "c"}, {"b"}}))
		})

		It("Should join chains linked through a later job", func() {
			Expect(chainNames([]model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Output: "/out/a"},
				{Name: "b", Archive: "/srv/b.vpk", Output: "/out/b"},
				{Name: "c", Archive: "/srv/a.vpk", Output: "/out/b"},
			})).To(Equal([][]string{{"a", "b", "c"}}))
		})
	})

	Describe("Execute", func() {
		It("Should run every job and summarize the session", func() {
			mgr.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(extractRecorder(0)).Times(3)

			jf := &JobFile{Jobs: []model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Output: "/out/a"},
				{Name: "b", Archive: "/srv/b.vpk", Output: "/out/b", Flatten: true},
				{Name: "c", Archive: "/srv/c.vpk", Output: "/out/c", Include: []string{"maps"}},
			}}

			summary, err := newRunner(WithConcurrency(2)).Execute(ctx, jf)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.TotalRuns).To(Equal(3))
			Expect(summary.CompleteRuns).To(Equal(3))
			Expect(summary.ExtractedFiles).To(Equal(3))

			Expect(extracted).To(ContainElement(model.ExtractRequest{Name: "b", Archive: "/srv/b.vpk", Output: "/out/b", Flatten: true}))
			Expect(extracted).To(ContainElement(model.ExtractRequest{Name: "c", Archive: "/srv/c.vpk", Output: "/out/c", Include: []string{"maps"}}))
		})

		It("Should serialize jobs sharing an output", func() {
			var active, peak atomic.Int32

			mgr.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, req model.ExtractRequest, log model.Logger) (model.Outcome, *model.ExtractResult, error) {
				n := active.Add(1)
				defer active.Add(-1)

				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}

				return extractRecorder(20*time.Millisecond)(ctx, req, log)
			}).Times(3)

			jf := &JobFile{Concurrency: 4, Jobs: []model.ExtractJob{
				{Name: "first", Archive: "/srv/a.vpk", Output: "/out/shared"},
				{Name: "second", Archive: "/srv/b.vpk", Output: "/out/shared"},
				{Name: "third", Archive: "/srv/c.vpk", Output: "/out/shared"},
			}}

			_, err := newRunner().Execute(ctx, jf)
			Expect(err).ToNot(HaveOccurred())
			Expect(peak.Load()).To(Equal(int32(1)))
			Expect(extracted).To(HaveLen(3))
			Expect(extracted[0].Name).To(Equal("first"))
			Expect(extracted[1].Name).To(Equal("second"))
			Expect(extracted[2].Name).To(Equal("third"))
		})

		It("Should fail jobs with mismatched checksums without extracting", func() {
			Expect(afero.WriteFile(fs, "/srv/a.vpk", []byte("data"), 0644)).To(Succeed())

			jf := &JobFile{Jobs: []model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Output: "/out/a", Checksum: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
			}}

			summary, err := newRunner().Execute(ctx, jf)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.FailedRuns).To(Equal(1))

			events, err := store.EventsForJob("a")
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Outcome).To(Equal(model.OutcomeFailed))
			Expect(events[0].Error).To(ContainSubstring("checksum mismatch"))
		})

		It("Should clean outputs before extracting", func() {
			Expect(fs.MkdirAll("/out/a", 0755)).To(Succeed())
			mgr.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(extractRecorder(0)).Times(2)

			var trashed []string
			r := newRunner(WithTrash(func(path string) error {
				mu.Lock()
				trashed = append(trashed, path)
				mu.Unlock()

				return fs.RemoveAll(path)
			}))

			_, err := r.Execute(ctx, &JobFile{Jobs: []model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Output: "/out/a", Clean: true},
				{Name: "b", Archive: "/srv/b.vpk", Output: "/out/b", Clean: true},
			}})
			Expect(err).ToNot(HaveOccurred())
			Expect(trashed).To(Equal([]string{"/out/a"}))
			Expect(extracted).To(HaveLen(2))
		})

		It("Should fail jobs when cleaning fails", func() {
			Expect(fs.MkdirAll("/out/a", 0755)).To(Succeed())

			r := newRunner(WithTrash(func(string) error { return errors.New("trash full") }))

			summary, err := r.Execute(ctx, &JobFile{Jobs: []model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Output: "/out/a", Clean: true},
			}})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.FailedRuns).To(Equal(1))
		})

		It("Should extract every archive in a bundle", func() {
			buf := bytes.NewBuffer(nil)
			w := zip.NewWriter(buf)
			for _, name := range []string{"one.vpk", "two.vpk", "readme.txt"} {
				f, err := w.Create(name)
				Expect(err).ToNot(HaveOccurred())
				_, err = f.Write([]byte(name))
				Expect(err).ToNot(HaveOccurred())
			}
			Expect(w.Close()).To(Succeed())
			Expect(afero.WriteFile(fs, "/srv/addon.zip", buf.Bytes(), 0644)).To(Succeed())

			mgr.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(extractRecorder(0)).Times(2)

			summary, err := newRunner().Execute(ctx, &JobFile{Jobs: []model.ExtractJob{
				{Name: "addon", Archive: "/srv/addon.zip", Output: "/out/addon"},
			}})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.TotalRuns).To(Equal(2))

			Expect(extracted[0].Name).To(Equal("addon:one.vpk"))
			Expect(extracted[1].Name).To(Equal("addon:two.vpk"))
			Expect(extracted[0].Output).To(Equal("/out/addon"))

			exists, err := afero.Exists(fs, extracted[0].Archive)
			Expect(err).ToNot(HaveOccurred())
			Expect(exists).To(BeFalse())
		})

		It("Should fail jobs with invalid bundles", func() {
			Expect(afero.WriteFile(fs, "/srv/addon.zip", []byte("junk"), 0644)).To(Succeed())

			summary, err := newRunner().Execute(ctx, &JobFile{Jobs: []model.ExtractJob{
				{Name: "addon", Archive: "/srv/addon.zip", Output: "/out/addon"},
			}})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.FailedRuns).To(Equal(1))
		})

		It("Should download archives before extracting", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/a.vpk" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.Write([]byte("vpk"))
			}))
			DeferCleanup(server.Close)

			mgr.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(extractRecorder(0))

			r := newRunner(WithDownloader(fetch.New(fs, logger, fetch.WithRetries(0))))

			summary, err := r.Execute(ctx, &JobFile{Jobs: []model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Url: server.URL + "/a.vpk", Output: "/out/a"},
				{Name: "b", Archive: "/srv/b.vpk", Url: server.URL + "/b.vpk", Output: "/out/b"},
			}})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.CompleteRuns).To(Equal(1))
			Expect(summary.FailedRuns).To(Equal(1))

			data, err := afero.ReadFile(fs, "/srv/a.vpk")
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("vpk"))
		})

		It("Should not start jobs once cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			summary, err := newRunner().Execute(cctx, &JobFile{Jobs: []model.ExtractJob{
				{Name: "a", Archive: "/srv/a.vpk", Output: "/out/a"},
			}})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.FailedRuns).To(Equal(1))
		})
	})
})
