package util_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/util"
)

var _ = Describe("Log", func() {

	Describe("formatting entries", func() {
		It("should tag entries of a source logger", func() {
			entry := util.SourceLogger(util.UpdaterSource)
			entry.Message = "copying files"
			entry.Level = log.InfoLevel
			entry.Time = time.Now()

			out, err := (&util.CustomFormatter{}).Format(entry)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(ContainSubstring("source=UPDATER"))
			Expect(string(out)).To(ContainSubstring("copying files"))
		})

		It("should leave plain entries untagged", func() {
			entry := log.NewEntry(log.StandardLogger())
			entry.Message = "plain"
			entry.Level = log.InfoLevel
			entry.Time = time.Now()

			out, err := (&util.CustomFormatter{}).Format(entry)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).NotTo(ContainSubstring("source="))
		})
	})
})
