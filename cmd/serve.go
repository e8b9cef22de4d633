package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve extraction and scoring over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default is "+server.DefaultAddress+")")

	viper.BindPFlag("serve.address", serveCmd.Flags().Lookup("address"))
}

func serve(cmd *cobra.Command) {
	rt := newRuntime(cmd.Context(), true)

	srv := server.New(rt.config.Serve, rt.scorer, rt.semanticScorer(), rt.taxonomy, rt.logger)

	rt.logger.Info("starting the skillgap server", zap.String("version", version))

	if err := srv.Start(cmd.Context()); err != nil {
		rt.logger.Fatal("serving", zap.Error(err))
	}
}
