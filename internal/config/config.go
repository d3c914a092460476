package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-dtdict/internal/recepisse"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Filler constants
	FillerPDFCPU = "pdfcpu"
	FillerPdftk  = "pdftk"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 20 * 1024 * 1024 // 20MB
	DefaultDatabase    = "dtdict.db"
	DefaultPdftk       = "pdftk"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "DTDICT"
)

// Config holds all configuration for the DT/DICT receipt tooling
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Directories
	XMLDirectory     string // inbox of teleservice filings
	OutputDirectory  string // receipts and dossier archives; may use @dict_* variables
	AnnexesDirectory string // files copied into every closed dossier

	// Receipt production
	Template  string // PDF form filled with the receipt buffer
	Filler    string // "pdfcpu" or "pdftk"
	PdftkPath string
	Fill      bool // produce the filled PDF next to the FDF
	CleanFDF  bool // remove the FDF once the PDF is filled
	Watch     bool // answer new filings as they reach the inbox
	Naming    recepisse.Naming
	Operator  recepisse.OperatorSettings

	// Register
	Database string

	// Application configuration
	ConfigFile  string
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum filing and template size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		XMLDirectory:    currentDir,
		OutputDirectory: currentDir,
		Filler:          FillerPDFCPU,
		PdftkPath:       DefaultPdftk,
		Naming: recepisse.Naming{
			ReceiptPrefix: "Recepisse",
			MapPrefix:     "Plan",
		},
		Database:    filepath.Join(currentDir, DefaultDatabase),
		Version:     "1.0.0",
		ServerName:  "mcp-dtdict",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process command line and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	DefineFlags(pflag.CommandLine, cfg)
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	return Load(pflag.CommandLine)
}

// Load builds the configuration from defaults, the optional config file,
// DTDICT_* environment variables and the already parsed flags, in
// increasing priority.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	setupViperEnvironment(v, cfg)
	bindFlagsToViper(v, flags)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	if err := populateConfigFromViper(v, cfg); err != nil {
		return nil, err
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("xmldir", cfg.XMLDirectory)
	v.SetDefault("outdir", cfg.OutputDirectory)
	v.SetDefault("annexes", cfg.AnnexesDirectory)
	v.SetDefault("template", cfg.Template)
	v.SetDefault("filler", cfg.Filler)
	v.SetDefault("pdftk", cfg.PdftkPath)
	v.SetDefault("fill", cfg.Fill)
	v.SetDefault("cleanfdf", cfg.CleanFDF)
	v.SetDefault("watch", cfg.Watch)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)

	v.SetDefault("naming.prefRecep", cfg.Naming.ReceiptPrefix)
	v.SetDefault("naming.sufRecep", cfg.Naming.ReceiptSuffix)
	v.SetDefault("naming.prefPlan", cfg.Naming.MapPrefix)
	v.SetDefault("naming.sufPlan", cfg.Naming.MapSuffix)
}

// DefineFlags sets up all command line flags on flags
func DefineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("config", "", "Configuration file (YAML, TOML or JSON)")
	flags.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("xmldir", cfg.XMLDirectory, "Directory receiving teleservice XML filings")
	flags.String("outdir", cfg.OutputDirectory, "Directory for receipts and archives (@dict_* variables allowed)")
	flags.String("annexes", cfg.AnnexesDirectory, "Directory of annexes copied into closed dossiers")
	flags.String("template", cfg.Template, "PDF receipt form template")
	flags.String("filler", cfg.Filler, "Form filler: 'pdfcpu' or 'pdftk'")
	flags.String("pdftk", cfg.PdftkPath, "Path of the pdftk executable")
	flags.Bool("fill", cfg.Fill, "Fill the PDF template in addition to writing the FDF")
	flags.Bool("cleanfdf", cfg.CleanFDF, "Remove the FDF once the PDF is filled")
	flags.Bool("watch", cfg.Watch, "Answer filings as they arrive in the XML directory")
	flags.String("database", cfg.Database, "Dossier register database file")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum filing and template size in bytes")
}

var flagKeys = []string{
	"mode", "host", "port", "xmldir", "outdir", "annexes", "template", "filler",
	"pdftk", "fill", "cleanfdf", "watch", "database", "loglevel", "maxfilesize",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	if flags == nil {
		return
	}
	for _, key := range flagKeys {
		if f := flags.Lookup(key); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
	if f := flags.Lookup("config"); f != nil {
		_ = v.BindPFlag("config", f)
	}
}

// readConfigFile merges the file named by --config or DTDICT_CONFIG.
func readConfigFile(v *viper.Viper) error {
	file := v.GetString("config")
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", file, err)
	}
	return nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP DT/DICT - A Model Context Protocol server answering DT, DICT and ATU filings\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --xmldir=/srv/dict/in --template=recepisse.pdf   # stdio mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config=/etc/dtdict.yaml --mode=server         # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --outdir=/srv/dict/@dict_no_teleservice          # one directory per dossier\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DTDICT_CONFIG       Configuration file\n")
		fmt.Fprintf(os.Stderr, "  DTDICT_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  DTDICT_XMLDIR       Filing inbox\n")
		fmt.Fprintf(os.Stderr, "  DTDICT_OUTDIR       Output directory\n")
		fmt.Fprintf(os.Stderr, "  DTDICT_TEMPLATE     PDF template\n")
		fmt.Fprintf(os.Stderr, "  DTDICT_DATABASE     Register database\n")
		fmt.Fprintf(os.Stderr, "  DTDICT_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  DTDICT_OPERATOR_*   Operator block (e.g. DTDICT_OPERATOR_COORDDENOM)\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) error {
	cfg.ConfigFile = v.GetString("config")
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.XMLDirectory = v.GetString("xmldir")
	cfg.OutputDirectory = v.GetString("outdir")
	cfg.AnnexesDirectory = v.GetString("annexes")
	cfg.Template = v.GetString("template")
	cfg.Filler = strings.ToLower(v.GetString("filler"))
	cfg.PdftkPath = v.GetString("pdftk")
	cfg.Fill = v.GetBool("fill")
	cfg.CleanFDF = v.GetBool("cleanfdf")
	cfg.Watch = v.GetBool("watch")
	cfg.Database = v.GetString("database")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")

	cfg.Naming = recepisse.Naming{
		ReceiptPrefix: v.GetString("naming.prefRecep"),
		ReceiptSuffix: v.GetString("naming.sufRecep"),
		MapPrefix:     v.GetString("naming.prefPlan"),
		MapSuffix:     v.GetString("naming.sufPlan"),
	}

	// Read leaf by leaf: UnmarshalKey would skip environment overrides.
	op := func(key string) string { return v.GetString("operator." + key) }
	cfg.Operator = recepisse.OperatorSettings{
		RaisonSociale:      op("coordDenom"),
		Contact:            op("coordPersonne"),
		NoVoie:             op("coordNumVoie"),
		LieuditBP:          op("coordBP"),
		CodePostal:         op("coordCP"),
		Commune:            op("coordCommune"),
		Tel:                op("coordTel"),
		Fax:                op("coordFax"),
		CategorieReseau:    op("categorieReseau"),
		Representant:       op("representant"),
		TelModification:    op("telModification"),
		TelEndommagement:   op("telEndommagement"),
		Endommagement:      op("endommagement"),
		ResponsableNom:     op("respNom"),
		ResponsableService: op("respService"),
		ResponsableTel:     op("respTel"),
		SignataireNom:      op("signNom"),
	}
	return nil
}

// expandPaths makes configured paths absolute. The output directory is left
// alone while it holds @variables.
func expandPaths(cfg *Config) {
	for _, p := range []*string{&cfg.XMLDirectory, &cfg.AnnexesDirectory, &cfg.Template, &cfg.Database} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}
	if cfg.OutputDirectory != "" && !HasVariables(cfg.OutputDirectory) {
		if abs, err := filepath.Abs(cfg.OutputDirectory); err == nil {
			cfg.OutputDirectory = abs
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate XML inbox
	if c.XMLDirectory == "" {
		return errors.New("XML directory cannot be empty")
	}
	if err := ensureDir(c.XMLDirectory); err != nil {
		return err
	}

	// The output directory is created per dossier, once variables are known
	if c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}

	if c.Database == "" {
		return errors.New("database path cannot be empty")
	}

	// Validate filler
	switch c.Filler {
	case FillerPDFCPU:
	case FillerPdftk:
		if c.PdftkPath == "" {
			return errors.New("pdftk path cannot be empty when the pdftk filler is selected")
		}
	default:
		return fmt.Errorf("invalid filler: %s (must be one of: pdfcpu, pdftk)", c.Filler)
	}

	if c.Fill && c.Template == "" {
		return errors.New("a PDF template is required when fill is enabled")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// ensureDir creates dir when it does not exist.
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", dir, err)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, XMLDirectory: %s, OutputDirectory: %s, "+
		"Template: %s, Filler: %s, Fill: %t, Database: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.XMLDirectory, c.OutputDirectory,
		c.Template, c.Filler, c.Fill, c.Database, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// Roots returns the directories file access is allowed in. An output
// directory holding variables contributes its fixed leading part.
func (c *Config) Roots() []string {
	roots := []string{c.XMLDirectory}
	if out := FixedPrefix(c.OutputDirectory); out != "" {
		roots = append(roots, out)
	}
	if c.AnnexesDirectory != "" {
		roots = append(roots, c.AnnexesDirectory)
	}
	return roots
}
