// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"github.com/goccy/go-yaml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/choria-io/extractvpk/templates"
)

var _ = Describe("ExtractJob", func() {
	Describe("Validate", func() {
		DescribeTable("validation tests",
			func(name, archive, output, url, checksum, errorText string) {
				job := &ExtractJob{
					Name:     name,
					Archive:  archive,
					Output:   output,
					Url:      url,
					Checksum: checksum,
				}

				err := job.Validate()

				if errorText != "" {
					Expect(err).To(MatchError(ErrInvalidJob))
					Expect(err.Error()).To(ContainSubstring(errorText))
				} else {
					Expect(err).ToNot(HaveOccurred())
				}
			},

			Entry("valid vpk job", "maps", "/games/pak01_dir.vpk", "/out", "", "", ""),
			Entry("valid bundle job", "maps", "/games/addon.7z", "/out", "", "", ""),
			Entry("valid relative paths", "maps", "pak01_dir.vpk", "out", "", "", ""),
			Entry("valid download", "maps", "/tmp/addon.vpk", "/out", "https://example.net/addon.vpk", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", ""),

			Entry("empty name", "", "/games/pak01_dir.vpk", "/out", "", "", "name is required"),
			Entry("empty archive", "maps", "", "/out", "", "", "archive is required"),
			Entry("empty output", "maps", "/games/pak01_dir.vpk", "", "", "", "output is required"),
			Entry("unclean archive", "maps", "/games/../pak01_dir.vpk", "/out", "", "", "archive path must be canonical"),
			Entry("unclean output", "maps", "/games/pak01_dir.vpk", "/out/", "", "", "output path must be canonical"),
			Entry("unsupported archive", "maps", "/games/pak01_dir.tar", "/out", "", "", "archive must end in"),
			Entry("ftp url", "maps", "/games/pak01_dir.vpk", "/out", "ftp://example.net/a.vpk", "", "url must be http or https"),
			Entry("short checksum", "maps", "/games/pak01_dir.vpk", "/out", "", "abcd", "checksum must be a hex encoded sha256"),
			Entry("non hex checksum", "maps", "/games/pak01_dir.vpk", "/out", "", "zz4d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", "checksum must be a hex encoded sha256"),
		)

		It("Should require username and password together", func() {
			job := &ExtractJob{Name: "maps", Archive: "a.vpk", Output: "out", Username: "bob"}
			Expect(job.Validate()).To(MatchError(ContainSubstring("username and password must be set together")))
		})
	})

	Describe("ResolveTemplates", func() {
		It("Should resolve all templated fields", func() {
			env := &templates.Env{
				Data:    map[string]any{"game": "left4dead2"},
				Environ: map[string]string{"TOKEN": "secret"},
			}

			job := &ExtractJob{
				Name:    "maps",
				Archive: "/games/{{ data.game }}/pak01_dir.vpk",
				Output:  "/out/{{ data.game }}",
				Include: []string{"maps/{{ data.game }}"},
				Exclude: []string{"\\.wav$"},
				Headers: map[string]string{"Authorization": "Bearer {{ environ.TOKEN }}"},
			}

			Expect(job.ResolveTemplates(env)).To(Succeed())
			Expect(job.Archive).To(Equal("/games/left4dead2/pak01_dir.vpk"))
			Expect(job.Output).To(Equal("/out/left4dead2"))
			Expect(job.Include).To(Equal([]string{"maps/left4dead2"}))
			Expect(job.Exclude).To(Equal([]string{"\\.wav$"}))
			Expect(job.Headers).To(HaveKeyWithValue("Authorization", "Bearer secret"))
		})

		It("Should report the job name on failure", func() {
			job := &ExtractJob{Name: "maps", Archive: "{{ ) }}"}
			Expect(job.ResolveTemplates(&templates.Env{})).To(MatchError(ContainSubstring("maps:")))
		})
	})

	Describe("Request", func() {
		It("Should copy the extraction settings", func() {
			job := &ExtractJob{
				Name:       "maps",
				Archive:    "addon.zip",
				Output:     "out",
				Include:    []string{"a"},
				Exclude:    []string{"b"},
				Expression: "ext == 'bsp'",
				Flatten:    true,
				Verify:     true,
			}

			Expect(job.IsBundle()).To(BeTrue())
			Expect(job.Request("/tmp/stage/pak01_dir.vpk")).To(Equal(ExtractRequest{
				Name:       "maps",
				Archive:    "/tmp/stage/pak01_dir.vpk",
				Output:     "out",
				Include:    []string{"a"},
				Exclude:    []string{"b"},
				Expression: "ext == 'bsp'",
				Flatten:    true,
				Verify:     true,
			}))
		})
	})

	Describe("ToYaml", func() {
		It("Should omit unset optional fields", func() {
			job := &ExtractJob{Name: "maps", Archive: "a.vpk", Output: "out"}
			y, err := job.ToYaml()
			Expect(err).ToNot(HaveOccurred())

			var parsed map[string]any
			Expect(yaml.Unmarshal(y, &parsed)).To(Succeed())
			Expect(parsed).To(HaveLen(3))
			Expect(parsed).To(HaveKeyWithValue("archive", "a.vpk"))
		})
	})
})
