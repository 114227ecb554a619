package util_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/netbirdio/selfupdate/util"
)

var _ = Describe("Util", func() {

	var (
		tmpDir string
	)

	type TestConfig struct {
		SomeMap   map[string]string
		SomeArray []string
		SomeField int
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "selfupdate_util_test_tmp_*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.RemoveAll(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Config", func() {
		Context("in JSON format", func() {
			It("should be written and read successfully", func() {
				written := &TestConfig{
					SomeMap:   map[string]string{"key1": "value1", "key2": "value2"},
					SomeArray: []string{"value1", "value2"},
					SomeField: 99,
				}

				file := filepath.Join(tmpDir, "nested", "testconfig.json")
				err := util.WriteJson(context.Background(), file, written)
				Expect(err).NotTo(HaveOccurred())

				read, err := util.ReadJson(file, &TestConfig{})
				Expect(err).NotTo(HaveOccurred())
				Expect(read).NotTo(BeNil())
				Expect(read.(*TestConfig).SomeMap["key1"]).To(BeEquivalentTo(written.SomeMap["key1"]))
				Expect(read.(*TestConfig).SomeArray).To(Equal(written.SomeArray))
				Expect(read.(*TestConfig).SomeField).To(BeEquivalentTo(written.SomeField))

				entries, err := os.ReadDir(filepath.Dir(file))
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
			})

			It("should refuse to write with a cancelled context", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				err := util.WriteJson(ctx, filepath.Join(tmpDir, "c.json"), &TestConfig{})
				Expect(err).To(HaveOccurred())
				Expect(util.FileExists(filepath.Join(tmpDir, "c.json"))).To(BeFalse())
			})

			It("should remove files and ignore missing ones", func() {
				file := filepath.Join(tmpDir, "r.json")
				Expect(util.WriteJson(context.Background(), file, &TestConfig{})).To(Succeed())
				Expect(util.RemoveJson(file)).To(Succeed())
				Expect(util.FileExists(file)).To(BeFalse())
				Expect(util.RemoveJson(file)).To(Succeed())
			})
		})
	})

	Describe("CopyDir", func() {
		It("should copy nested trees and overwrite existing files", func() {
			src := filepath.Join(tmpDir, "src")
			dst := filepath.Join(tmpDir, "dst")
			Expect(os.MkdirAll(filepath.Join(src, "a", "b"), 0o755)).To(Succeed())
			Expect(os.MkdirAll(filepath.Join(src, "empty"), 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(src, "a", "b", "f.txt"), []byte("new"), 0o644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0o644)).To(Succeed())

			Expect(os.MkdirAll(filepath.Join(dst, "a", "b"), 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dst, "a", "b", "f.txt"), []byte("old content"), 0o644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dst, "keep.txt"), []byte("keep"), 0o644)).To(Succeed())

			var visited []string
			err := util.CopyDir(src, dst, func(p string) error {
				visited = append(visited, p)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(visited).To(HaveLen(2))

			data, err := os.ReadFile(filepath.Join(dst, "a", "b", "f.txt"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("new"))
			Expect(util.DirExists(filepath.Join(dst, "empty"))).To(BeTrue())
			Expect(util.FileExists(filepath.Join(dst, "keep.txt"))).To(BeTrue())
			Expect(util.FileExists(filepath.Join(dst, "top.txt"))).To(BeTrue())
		})
	})

	Describe("Access probes", func() {
		It("should treat missing and plain files as writable", func() {
			Expect(util.CanOpenForWrite(filepath.Join(tmpDir, "missing"))).To(BeTrue())

			file := filepath.Join(tmpDir, "plain")
			Expect(os.WriteFile(file, []byte("x"), 0o644)).To(Succeed())
			Expect(util.CanOpenForWrite(file)).To(BeTrue())

			data, err := os.ReadFile(file)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("x"))
		})

		It("should detect writable directories", func() {
			Expect(util.IsDirWritable(tmpDir)).To(BeTrue())
			Expect(util.IsDirWritable(filepath.Join(tmpDir, "missing"))).To(BeFalse())
		})
	})
})
