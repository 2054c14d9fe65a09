package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/prelisten/internal/config"
	perrors "github.com/tessro/prelisten/internal/errors"
	"github.com/tessro/prelisten/internal/wizard"
)

var configInitInteractive bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing prelisten configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Supported keys:
  preview.length                Preview length in seconds
  preview.default_start         Start for new tracks, in seconds
  audio.backend                 speaker or headless
  audio.sample_rate             Output sample rate
  audio.buffer_ms               Speaker buffer in milliseconds
  audio.tick_ms                 Position update interval in milliseconds
  storage.gcs_credentials_file  Service account file for gs:// locators
  storage.http_timeout          Timeout for http(s) locators in seconds
  catalog.path                  Catalog file
  tail.emoji                    Emoji in event lines (true/false)
  tail.timestamps               Timestamps in event lines (true/false)
  tail.positions                Print position updates (true/false)
  tui.theme                     auto, dark or light
  tui.refresh_interval          Refresh interval in milliseconds
  log.level                     debug, info, warn or error
  log.file                      Log file (default: stderr)
  log.format                    text or json

Examples:
  prelisten config set audio.backend headless
  prelisten config set preview.length 45`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitInteractive, "interactive", "i", false, "answer a few questions instead of writing defaults")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return printJSON(cmd.OutOrStdout(), cfg)
	}

	// Pretty print as TOML
	encoder := toml.NewEncoder(cmd.OutOrStdout())
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return perrors.WithSuggestion(
			fmt.Errorf("%w at %s", perrors.ErrConfigNotFound, configPath),
			"Run 'prelisten config init' first")
	}

	// Find editor
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		// Try common editors
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	defaultCfg := config.Default()
	if configInitInteractive {
		if !wizard.IsTerminal() {
			return fmt.Errorf("--interactive needs a terminal")
		}
		if err := askConfig(defaultCfg); err != nil {
			return err
		}
	}

	if err := defaultCfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", perrors.ErrInvalidConfig, err)
	}
	if err := config.Save(defaultCfg, configPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return printJSON(out, map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}

	fmt.Fprintf(out, "Created config file: %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Add tracks with 'prelisten catalog add <file|url|gs://...>'")
	fmt.Fprintln(out, "  2. Run 'prelisten ui' to audition them and place their previews")
	return nil
}

// askConfig fills the settings most people change on first run.
func askConfig(c *config.Config) error {
	length := strconv.Itoa(c.Preview.Length)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Audio backend").
				Description("headless plays silently and only tracks time").
				Options(
					huh.NewOption("Speaker (system audio)", "speaker"),
					huh.NewOption("Headless (no sound)", "headless"),
				).
				Value(&c.Audio.Backend),
			huh.NewInput().
				Title("Preview length (seconds)").
				Value(&length).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number of seconds")
					}
					return nil
				}),
			huh.NewInput().
				Title("Catalog file").
				Value(&c.Catalog.Path),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	c.Preview.Length, _ = strconv.Atoi(length)
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.Path()
}

// configKinds lists the settable keys and how their values are typed.
var configKinds = map[string]string{
	"preview.length":               "int",
	"preview.default_start":        "float",
	"audio.backend":                "string",
	"audio.sample_rate":            "int",
	"audio.buffer_ms":              "int",
	"audio.tick_ms":                "int",
	"storage.gcs_credentials_file": "string",
	"storage.http_timeout":         "int",
	"catalog.path":                 "string",
	"tail.emoji":                   "bool",
	"tail.timestamps":              "bool",
	"tail.positions":               "bool",
	"tui.theme":                    "string",
	"tui.refresh_interval":         "int",
	"log.level":                    "string",
	"log.file":                     "string",
	"log.format":                   "string",
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	configPath := getConfigPath()

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return perrors.WithSuggestion(
			fmt.Errorf("%w at %s", perrors.ErrConfigNotFound, configPath),
			"Run 'prelisten config init' first")
	}

	kind, ok := configKinds[key]
	if !ok {
		return fmt.Errorf("unknown key %q. Run 'prelisten config set --help' for the supported keys", key)
	}

	// Read the current config file as raw TOML
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var rawConfig map[string]interface{}
	if _, err := toml.Decode(string(data), &rawConfig); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if rawConfig == nil {
		rawConfig = make(map[string]interface{})
	}

	section, field, _ := strings.Cut(key, ".")

	// Get or create the section
	sectionMap, ok := rawConfig[section].(map[string]interface{})
	if !ok {
		sectionMap = make(map[string]interface{})
		rawConfig[section] = sectionMap
	}

	typedValue, err := parseConfigValue(kind, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	sectionMap[field] = typedValue

	// Validate the result before writing it back
	var updated config.Config
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(rawConfig); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if _, err := toml.Decode(buf.String(), &updated); err != nil {
		return fmt.Errorf("failed to parse updated config: %w", err)
	}
	updated.ApplyDefaults()
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("%w: %w", perrors.ErrInvalidConfig, err)
	}

	if err := os.WriteFile(configPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return printJSON(out, map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}

func parseConfigValue(kind, value string) (interface{}, error) {
	switch kind {
	case "int":
		return strconv.Atoi(value)
	case "float":
		return strconv.ParseFloat(value, 64)
	case "bool":
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}
