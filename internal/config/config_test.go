package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.ServerName != "mcp-dtdict" {
		t.Errorf("Expected default server name to be 'mcp-dtdict', got '%s'", cfg.ServerName)
	}

	if cfg.Filler != FillerPDFCPU {
		t.Errorf("Expected default filler to be 'pdfcpu', got '%s'", cfg.Filler)
	}

	if cfg.Fill {
		t.Error("Expected PDF filling to be off by default")
	}

	if cfg.Naming.ReceiptPrefix != "Recepisse" || cfg.Naming.MapPrefix != "Plan" {
		t.Errorf("Unexpected default naming: %+v", cfg.Naming)
	}

	if cfg.MaxFileSize != 20*1024*1024 {
		t.Errorf("Expected default max file size to be 20MB, got %d", cfg.MaxFileSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.XMLDirectory != currentDir {
		t.Errorf("Expected default XML directory to be '%s', got '%s'", currentDir, cfg.XMLDirectory)
	}
	if cfg.Database != filepath.Join(currentDir, DefaultDatabase) {
		t.Errorf("Unexpected default database: %s", cfg.Database)
	}
}

// validConfig returns a configuration that passes Validate.
func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		Mode:            "stdio",
		Host:            "127.0.0.1",
		Port:            8080,
		XMLDirectory:    filepath.Join(dir, "in"),
		OutputDirectory: filepath.Join(dir, "out"),
		Filler:          FillerPDFCPU,
		PdftkPath:       "pdftk",
		Database:        filepath.Join(dir, "dtdict.db"),
		LogLevel:        "info",
		MaxFileSize:     1024,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid config - stdio mode", modify: func(*Config) {}},
		{name: "valid config - server mode", modify: func(c *Config) { c.Mode = "server" }},
		{name: "invalid mode", modify: func(c *Config) { c.Mode = "invalid" }, wantErr: "mode must be"},
		{name: "invalid port - too low (server mode)", modify: func(c *Config) {
			c.Mode = "server"
			c.Port = 0
		}, wantErr: "port must be"},
		{name: "invalid port - too high (server mode)", modify: func(c *Config) {
			c.Mode = "server"
			c.Port = 70000
		}, wantErr: "port must be"},
		{name: "invalid port ignored in stdio mode", modify: func(c *Config) { c.Port = 0 }},
		{name: "empty XML directory", modify: func(c *Config) { c.XMLDirectory = "" }, wantErr: "XML directory"},
		{name: "empty output directory", modify: func(c *Config) { c.OutputDirectory = "" }, wantErr: "output directory"},
		{name: "output directory with variables", modify: func(c *Config) {
			c.OutputDirectory = filepath.Join(c.OutputDirectory, "@dict_no_teleservice")
		}},
		{name: "empty database", modify: func(c *Config) { c.Database = "" }, wantErr: "database"},
		{name: "pdftk filler", modify: func(c *Config) { c.Filler = FillerPdftk }},
		{name: "pdftk filler without path", modify: func(c *Config) {
			c.Filler = FillerPdftk
			c.PdftkPath = ""
		}, wantErr: "pdftk path"},
		{name: "unknown filler", modify: func(c *Config) { c.Filler = "acrobat" }, wantErr: "invalid filler"},
		{name: "fill without template", modify: func(c *Config) { c.Fill = true }, wantErr: "template is required"},
		{name: "fill with template", modify: func(c *Config) {
			c.Fill = true
			c.Template = "recepisse.pdf"
		}},
		{name: "invalid log level", modify: func(c *Config) { c.LogLevel = "invalid" }, wantErr: "invalid log level"},
		{name: "invalid max file size", modify: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "file size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     bool
	}{
		{name: "debug level", logLevel: "debug", want: true},
		{name: "info level", logLevel: "info", want: false},
		{name: "warn level", logLevel: "warn", want: false},
		{name: "error level", logLevel: "error", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:            "server",
		Host:            "localhost",
		Port:            8080,
		XMLDirectory:    "/srv/dict/in",
		OutputDirectory: "/srv/dict/@dict_no_teleservice",
		Filler:          "pdftk",
		LogLevel:        "debug",
		MaxFileSize:     1024,
	}

	result := cfg.String()

	expectedSubstrings := []string{
		"Mode: server",
		"Host: localhost",
		"Port: 8080",
		"XMLDirectory: /srv/dict/in",
		"OutputDirectory: /srv/dict/@dict_no_teleservice",
		"Filler: pdftk",
		"LogLevel: debug",
		"MaxFileSize: 1024",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	cfg := validConfig(t)
	cfg.XMLDirectory = filepath.Join(t.TempDir(), "non-existent", "inbox")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error: %v", err)
	}

	if _, err := os.Stat(cfg.XMLDirectory); err != nil {
		t.Errorf("XML directory should have been created: %v", err)
	}
	if _, err := os.Stat(cfg.OutputDirectory); !os.IsNotExist(err) {
		t.Errorf("Output directory should NOT have been created: %s", cfg.OutputDirectory)
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}
	invalidLevels := []string{"DEBUG", "INFO", "trace", "fatal", ""}

	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.LogLevel = level
			if err := cfg.Validate(); err != nil {
				t.Errorf("Config.Validate() should accept log level '%s', got error: %v", level, err)
			}
		})
	}

	for _, level := range invalidLevels {
		t.Run("invalid_"+level, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.LogLevel = level
			if err := cfg.Validate(); err == nil {
				t.Errorf("Config.Validate() should reject log level '%s'", level)
			}
		})
	}
}

func TestConfigIsServerMode(t *testing.T) {
	if !(&Config{Mode: "server"}).IsServerMode() {
		t.Error("Config.IsServerMode() = false for server mode")
	}
	if (&Config{Mode: "stdio"}).IsServerMode() {
		t.Error("Config.IsServerMode() = true for stdio mode")
	}
}

func TestConfigIsStdioMode(t *testing.T) {
	if !(&Config{Mode: "stdio"}).IsStdioMode() {
		t.Error("Config.IsStdioMode() = false for stdio mode")
	}
	if (&Config{Mode: "server"}).IsStdioMode() {
		t.Error("Config.IsStdioMode() = true for server mode")
	}
}

func TestConfigRoots(t *testing.T) {
	cfg := &Config{
		XMLDirectory:     "/srv/dict/in",
		OutputDirectory:  "/srv/dict/out/@dict_type_demande/@dict_no_teleservice",
		AnnexesDirectory: "/srv/dict/annexes",
	}

	roots := cfg.Roots()
	want := []string{"/srv/dict/in", "/srv/dict/out", "/srv/dict/annexes"}
	if len(roots) != len(want) {
		t.Fatalf("Config.Roots() = %v, want %v", roots, want)
	}
	for i := range want {
		if roots[i] != want[i] {
			t.Errorf("Config.Roots()[%d] = %s, want %s", i, roots[i], want[i])
		}
	}
}
