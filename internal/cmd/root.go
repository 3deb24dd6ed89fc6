// Package cmd содержит команды CLI figma-dl.
package cmd

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	figmadl "github.com/Larryzhang-S/figma-dl"
)

var (
	verbose bool

	versionInfo struct {
		Version string
		Commit  string
	}
)

// SetVersionInfo is called by the main package to set version information.
func SetVersionInfo(version, commit string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
}

var rootCmd = &cobra.Command{
	Use:   "figma-dl",
	Short: "Download rendered images of Figma document nodes",
	Long: `figma-dl exports named nodes of a Figma document as PNG or SVG files.

The Figma access token is read from the --token flag or the FIGMA_TOKEN
environment variable (a .env file in the working directory is honored).`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("token", "", "Figma access token (env: FIGMA_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// .env отсутствует в большинстве окружений, это не ошибка.
	_ = godotenv.Load()

	viper.SetEnvPrefix("figma")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// newLogger строит логгер процесса: тихий по умолчанию, подробный с --verbose.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// newClient собирает клиент из токена и логгера. Токен обязателен.
func newClient(logger *zap.Logger) (*figmadl.Client, error) {
	token := viper.GetString("token")
	if token == "" {
		return nil, fmt.Errorf("figma token is required: pass --token or set FIGMA_TOKEN")
	}

	return figmadl.New(token, figmadl.Config{Logger: logger}), nil
}
