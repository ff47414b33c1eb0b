// Package helm drives the helm binary to install and remove store releases.
package helm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Deployer installs and uninstalls chart releases by shelling out to helm.
// The install call blocks until the release is ready or the configured
// timeout expires; helm enforces the timeout itself via --timeout.
type Deployer struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewDeployer creates a deployer. binary defaults to "helm" and timeout to
// ten minutes when zero values are passed.
func NewDeployer(binary string, timeout time.Duration, logger *slog.Logger) *Deployer {
	if binary == "" {
		binary = "helm"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{
		binary:  binary,
		timeout: timeout,
		logger:  logger,
	}
}

// InstallOrUpgrade renders the values tree to a temporary file and runs
// `helm upgrade --install`. The namespace is created if absent.
func (d *Deployer) InstallOrUpgrade(ctx context.Context, releaseName, chartPath, namespace string, valuesTree map[string]any) error {
	valuesFile, err := os.CreateTemp("", "values-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create values file: %w", err)
	}
	defer os.Remove(valuesFile.Name())

	encoder := yaml.NewEncoder(valuesFile)
	if err := encoder.Encode(valuesTree); err != nil {
		valuesFile.Close()
		return fmt.Errorf("failed to render values: %w", err)
	}
	encoder.Close()
	valuesFile.Close()

	args := []string{
		"upgrade", "--install", releaseName, chartPath,
		"--namespace", namespace,
		"--create-namespace",
		"--values", valuesFile.Name(),
		"--wait",
		"--timeout", d.timeout.String(),
	}

	d.logger.Info("installing release",
		slog.String("release", releaseName),
		slog.String("chart", chartPath),
		slog.String("namespace", namespace),
	)

	if out, err := d.run(ctx, args); err != nil {
		return fmt.Errorf("helm upgrade failed: %s", firstLine(out, err))
	}
	return nil
}

// Uninstall removes a release. A missing release is success.
func (d *Deployer) Uninstall(ctx context.Context, releaseName, namespace string) error {
	args := []string{"uninstall", releaseName, "--namespace", namespace}

	out, err := d.run(ctx, args)
	if err != nil {
		if strings.Contains(out, "release: not found") {
			d.logger.Debug("release already gone", slog.String("release", releaseName))
			return nil
		}
		return fmt.Errorf("helm uninstall failed: %s", firstLine(out, err))
	}
	return nil
}

// run executes helm with combined output capture. The context bounds the
// whole invocation; helm's own --timeout bounds the wait inside an install.
func (d *Deployer) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, d.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		d.logger.Error("helm command failed",
			slog.String("args", strings.Join(args, " ")),
			slog.String("output", strings.TrimSpace(string(out))),
		)
	}
	return string(out), err
}

func firstLine(out string, err error) string {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return err.Error()
	}
	if idx := strings.IndexByte(trimmed, '\n'); idx > 0 {
		return trimmed[:idx]
	}
	return trimmed
}
