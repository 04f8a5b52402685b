//go:build e2e
// +build e2e

/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chazu/kubegraph/test/utils"
)

// namespace holds the httpbin fixture
const namespace = "httpbin"

var _ = Describe("kubegraph", Ordered, func() {
	var outDir string

	// Deploy two httpbin versions behind one Ingress and wait for them
	BeforeAll(func() {
		By("applying the httpbin manifests")
		cmd := exec.Command("kubectl", "apply", "-f", "test/e2e/testdata/httpbin.yaml")
		_, err := utils.Run(cmd)
		Expect(err).NotTo(HaveOccurred(), "Failed to apply httpbin manifests")

		By("waiting for the deployments to become available")
		cmd = exec.Command("kubectl", "wait", "deployment", "--all",
			"--for=condition=Available", "-n", namespace, "--timeout=3m")
		_, err = utils.Run(cmd)
		Expect(err).NotTo(HaveOccurred(), "httpbin deployments did not become available")

		outDir, err = os.MkdirTemp("", "kubegraph-out")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		By("removing the httpbin namespace")
		cmd := exec.Command("kubectl", "delete", "ns", namespace, "--wait=false")
		_, _ = utils.Run(cmd)

		_ = os.RemoveAll(outDir)
	})

	SetDefaultEventuallyTimeout(2 * time.Minute)
	SetDefaultEventuallyPollingInterval(time.Second)

	It("should draw every relation of the namespace", func() {
		base := filepath.Join(outDir, "httpbin")

		res, err := utils.RunSeparate(exec.Command(binary, "-n", namespace, "-T", "dot", "-o", base))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.ExitCode).To(Equal(0), res.Stderr)
		Expect(res.Stdout).To(Equal("Graph generated: " + base + ".dot (namespace: httpbin)\n"))

		data, err := os.ReadFile(base + ".dot")
		Expect(err).NotTo(HaveOccurred())
		dot := string(data)

		for _, version := range []string{"v1", "v2"} {
			Expect(dot).To(MatchRegexp(
				`"Deployment/httpbin/httpbin-%s" -> "ReplicaSet/httpbin/httpbin-%s-[a-z0-9]+" \[label="owns"`, version, version))
			Expect(dot).To(MatchRegexp(
				`"ReplicaSet/httpbin/httpbin-%s-[a-z0-9]+" -> "Pod/httpbin/httpbin-%s-[a-z0-9-]+" \[label="owns"`, version, version))
			Expect(dot).To(MatchRegexp(
				`"Service/httpbin/httpbin-%s-service" -> "Pod/httpbin/httpbin-%s-[a-z0-9-]+" \[label="selects"`, version, version))
			Expect(dot).To(ContainSubstring(
				`"Ingress/httpbin/httpbin-ingress" -> "Service/httpbin/httpbin-` + version + `-service" [label="/` + version + `"`))
		}
	})

	It("should produce identical output for an unchanged namespace", func() {
		first := filepath.Join(outDir, "first")
		second := filepath.Join(outDir, "second")

		for _, base := range []string{first, second} {
			res, err := utils.RunSeparate(exec.Command(binary, "-n", namespace, "-T", "json", "-o", base))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ExitCode).To(Equal(0), res.Stderr)
		}

		a, err := os.ReadFile(first + ".json")
		Expect(err).NotTo(HaveOccurred())
		b, err := os.ReadFile(second + ".json")
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(a))
	})

	It("should include the namespace when graphing the whole cluster", func() {
		base := filepath.Join(outDir, "cluster")

		res, err := utils.RunSeparate(exec.Command(binary, "-A", "-T", "yaml", "-o", base))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.ExitCode).To(Equal(0), res.Stderr)
		Expect(res.Stdout).To(ContainSubstring("(namespace: all)"))

		data, err := os.ReadFile(base + ".yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("id: Ingress/httpbin/httpbin-ingress"))
	})

	It("should fail for a namespace that does not exist", func() {
		base := filepath.Join(outDir, "ghost")

		res, err := utils.RunSeparate(exec.Command(binary, "-n", "kubegraph-does-not-exist", "-T", "dot", "-o", base))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.ExitCode).To(Equal(1))
		Expect(res.Stdout).To(BeEmpty())
		Expect(res.Stderr).To(ContainSubstring(`Error: namespace "kubegraph-does-not-exist" not found`))
		Expect(base + ".dot").NotTo(BeAnExistingFile())
	})
})
