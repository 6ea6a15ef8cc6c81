package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcut/pkg/config"
	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/grid"
)

// newFlagCommand returns a command with grid flags registered and args parsed.
func newFlagCommand(t *testing.T, args ...string) (*cobra.Command, *gridFlags) {
	t.Helper()
	var f gridFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	cmd.SetContext(context.Background())
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, &f
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridcut.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtentFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		conf     config.Config
		want     feature.Extent
		wantOK   bool
		wantCode gcerrors.Code
	}{
		{name: "absent", conf: config.New()},
		{
			name:   "complete",
			conf:   config.Config{"min_x": "0", "min_y": "-5", "max_x": "10", "max_y": "5"},
			want:   feature.Extent{MinX: 0, MinY: -5, MaxX: 10, MaxY: 5},
			wantOK: true,
		},
		{
			name:     "partial",
			conf:     config.Config{"min_x": "0", "max_x": "10"},
			wantCode: gcerrors.ErrCodeInvalidConfig,
		},
		{
			name:     "not a number",
			conf:     config.Config{"min_x": "zero", "min_y": "0", "max_x": "10", "max_y": "10"},
			wantCode: gcerrors.ErrCodeInvalidConfig,
		},
		{
			name:     "inverted",
			conf:     config.Config{"min_x": "10", "min_y": "0", "max_x": "0", "max_y": "10"},
			wantCode: gcerrors.ErrCodeInvalidExtent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := extentFromConfig(tt.conf)
			if tt.wantCode != "" {
				if !gcerrors.Is(err, tt.wantCode) {
					t.Fatalf("err = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("extentFromConfig() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestOptionsFlagsOnly(t *testing.T) {
	cmd, f := newFlagCommand(t,
		"--cell-size", "250",
		"--technique", "crop",
		"--extent", "0,0,1000,500",
		"--columns", "name,kind",
		"--strict", "--refresh")

	opts, err := f.options(cmd, "parcels.geojson")
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}

	if opts.Input != "parcels.geojson" {
		t.Errorf("Input = %q", opts.Input)
	}
	if got := opts.Policy.Value(grid.KeyCellSize); got != "250" {
		t.Errorf("cell_size = %q, want 250", got)
	}
	if got := opts.Policy.Value(grid.KeyCullingTechnique); got != "crop" {
		t.Errorf("technique = %q, want crop", got)
	}
	if opts.Extent == nil || *opts.Extent != (feature.Extent{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 500}) {
		t.Errorf("Extent = %v", opts.Extent)
	}
	if len(opts.Columns) != 2 || opts.Columns[1] != "kind" {
		t.Errorf("Columns = %v", opts.Columns)
	}
	if !opts.Strict || !opts.Refresh {
		t.Errorf("Strict = %t, Refresh = %t", opts.Strict, opts.Refresh)
	}
}

func TestOptionsConfigFile(t *testing.T) {
	path := writeConfig(t, `
[gridding]
cell_size = 100
culling_technique = "crop"
cluster_culling = true

[extent]
min_x = 0
min_y = 0
max_x = 400
max_y = 300

[cache]
ttl = "1h"
redis_addr = "redis://cache:6379/0"
`)

	t.Run("config values", func(t *testing.T) {
		cmd, f := newFlagCommand(t, "-c", path)
		opts, err := f.options(cmd, "in.geojson")
		if err != nil {
			t.Fatalf("options() error: %v", err)
		}
		policy, err := opts.GridPolicy()
		if err != nil {
			t.Fatal(err)
		}
		if v := policy.CellSize.Value(); v != 100 {
			t.Errorf("cell size = %v, want 100", v)
		}
		if policy.Technique.Value() != grid.CullByCropping {
			t.Errorf("technique = %v, want crop", policy.Technique.Value())
		}
		if !policy.ClusterCulling.Value() {
			t.Error("cluster_culling should be true")
		}
		if opts.Extent == nil || opts.Extent.MaxX != 400 {
			t.Errorf("Extent = %v", opts.Extent)
		}
		if opts.TTL != time.Hour {
			t.Errorf("TTL = %v, want 1h", opts.TTL)
		}
		t.Setenv(envRedisAddr, "")
		if got := f.redisAddr(); got != "redis://cache:6379/0" {
			t.Errorf("redisAddr() = %q", got)
		}
	})

	t.Run("flags override config", func(t *testing.T) {
		cmd, f := newFlagCommand(t, "-c", path, "--cell-size", "50", "--technique", "centroid", "--extent", "1,1,2,2")
		opts, err := f.options(cmd, "in.geojson")
		if err != nil {
			t.Fatalf("options() error: %v", err)
		}
		if got := opts.Policy.Value(grid.KeyCellSize); got != "50" {
			t.Errorf("cell_size = %q, want 50", got)
		}
		if got := opts.Policy.Value(grid.KeyCullingTechnique); got != "centroid" {
			t.Errorf("technique = %q, want centroid", got)
		}
		if opts.Extent.MinX != 1 {
			t.Errorf("Extent = %v, want flag value", opts.Extent)
		}
	})
}

func TestOptionsErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode gcerrors.Code
	}{
		{"bad technique", []string{"--technique", "nearest"}, gcerrors.ErrCodeInvalidConfig},
		{"upper case technique", []string{"--technique", "CROP"}, gcerrors.ErrCodeInvalidConfig},
		{"bad extent", []string{"--extent", "0,0,1"}, gcerrors.ErrCodeInvalidExtent},
		{"missing config", []string{"-c", filepath.Join(t.TempDir(), "none.toml")}, gcerrors.ErrCodeFileNotFound},
		{"bad ttl", []string{"-c", writeConfig(t, "[cache]\nttl = \"soon\"\n")}, gcerrors.ErrCodeInvalidConfig},
		{"bad toml", []string{"-c", writeConfig(t, "[gridding\n")}, gcerrors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, f := newFlagCommand(t, tt.args...)
			_, err := f.options(cmd, "in.geojson")
			if !gcerrors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestRedisAddrPrecedence(t *testing.T) {
	f := gridFlags{configRedis: "from-config:6379"}

	t.Setenv(envRedisAddr, "")
	if got := f.redisAddr(); got != "from-config:6379" {
		t.Errorf("config only: %q", got)
	}

	t.Setenv(envRedisAddr, "from-env:6379")
	if got := f.redisAddr(); got != "from-env:6379" {
		t.Errorf("env over config: %q", got)
	}

	f.redis = "from-flag:6379"
	if got := f.redisAddr(); got != "from-flag:6379" {
		t.Errorf("flag over env: %q", got)
	}
}

func TestConfigTemplateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridcut.toml")
	if err := configTemplate().Save(path); err != nil {
		t.Fatal(err)
	}

	cmd, f := newFlagCommand(t, "-c", path, "--strict")
	opts, err := f.options(cmd, "in.geojson")
	if err != nil {
		t.Fatalf("options() from template: %v", err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("template does not validate: %v", err)
	}
	if got := opts.Policy.Value(grid.KeyCellSize); got != "1000" {
		t.Errorf("cell_size = %q, want 1000", got)
	}
	if opts.Extent == nil || opts.Extent.MaxX != 10000 {
		t.Errorf("Extent = %v", opts.Extent)
	}
}

func TestOpenSinks(t *testing.T) {
	dir := t.TempDir()

	t.Run("unknown", func(t *testing.T) {
		o := gridOpts{sinks: []string{"dir", "kafka"}, output: filepath.Join(dir, "a")}
		_, _, err := o.openSinks(context.Background(), "in.geojson")
		if !gcerrors.Is(err, gcerrors.ErrCodeInvalidInput) {
			t.Errorf("err = %v, want INVALID_INPUT", err)
		}
	})

	t.Run("mongo without uri", func(t *testing.T) {
		t.Setenv(envMongoURI, "")
		o := gridOpts{sinks: []string{"mongo"}}
		_, _, err := o.openSinks(context.Background(), "in.geojson")
		if !gcerrors.Is(err, gcerrors.ErrCodeInvalidConfig) {
			t.Errorf("err = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("none", func(t *testing.T) {
		o := gridOpts{sinks: []string{"none"}}
		s, outputs, err := o.openSinks(context.Background(), "in.geojson")
		if err != nil {
			t.Fatal(err)
		}
		if len(outputs) != 0 {
			t.Errorf("outputs = %v, want none", outputs)
		}
		if err := s.Close(); err != nil {
			t.Error(err)
		}
	})

	t.Run("dir and plot", func(t *testing.T) {
		o := gridOpts{
			sinks:  []string{" DIR ", "plot"},
			output: filepath.Join(dir, "cells"),
			plot:   filepath.Join(dir, "preview.png"),
		}
		s, outputs, err := o.openSinks(context.Background(), "in.geojson")
		if err != nil {
			t.Fatal(err)
		}
		if len(outputs) != 2 || outputs[1] != o.plot {
			t.Errorf("outputs = %v", outputs)
		}
		if _, err := os.Stat(o.output); err != nil {
			t.Errorf("output dir not created: %v", err)
		}
		_ = s.Close()
	})
}
