package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const releaseVersion = "0.1.0"

type Config struct {
	serverURL string
	room      string
	name      string
	stateFile string
	showQR    bool
	verbose   bool
}

func (c *Config) validate() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid --server-url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid --server-url scheme (must be ws or wss): %q", u.Scheme)
	}
	if strings.TrimSpace(c.room) == "" {
		return errors.New("--room is required")
	}
	if strings.TrimSpace(c.name) == "" {
		return errors.New("--name is required")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CONFESSION")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "confession-client",
		Short:   "Terminal client for the confession party game.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.serverURL, "server-url", "s", "ws://localhost:8080/ws", "websocket endpoint of the game server (env: CONFESSION_SERVER_URL)")
	fs.StringVarP(&cfg.room, "room", "r", "", "room code to join (env: CONFESSION_ROOM)")
	fs.StringVarP(&cfg.name, "name", "n", "", "display name (env: CONFESSION_NAME)")
	fs.StringVar(&cfg.stateFile, "state-file", "", "path of the persisted player id file (env: CONFESSION_STATE_FILE)")
	fs.BoolVar(&cfg.showQR, "qr", false, "print a QR code of the room code after joining (env: CONFESSION_QR)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CONFESSION_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("confession-client v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}
	log.Printf(format, args...)
}

func main() {
	log.SetFlags(0)
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
