package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/paper-courier/internal/api"
	"github.com/yourusername/paper-courier/internal/config"
	"github.com/yourusername/paper-courier/internal/logger"
	"github.com/yourusername/paper-courier/internal/storage"
)

// flag names
const (
	flagServer       = "server"
	flagOut          = "out"
	flagPollInterval = "poll-interval"
	flagMaxPoll      = "max-poll"
	flagLogLevel     = "log-level"
	flagManifest     = "manifest"
)

// defaultMaxPoll は CLI でポーリングを打ち切るまでの既定時間です。--max-poll 0 で無制限になります。
const defaultMaxPoll = 15 * time.Minute

// app はサブコマンドが共有する設定と依存です。PersistentPreRunE で組み立てます。
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	client   *api.Client
	store    *storage.Local
	manifest bool
	out      io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		server       string
		outDir       string
		pollInterval time.Duration
		maxPoll      time.Duration
		logLevel     string
	)

	root := &cobra.Command{
		Use:   "paperctl",
		Short: "paperctl - PDF/画像変換サービスのジョブクライアント",
		Long: `paperctl はファイルを変換サービスへアップロードしてジョブを作成し、
完了までステータスを確認してから成果物をダウンロードします。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Flag > Env > Default
			flags := cmd.Flags()
			if flags.Changed(flagServer) {
				cfg.ServerURL = server
			}
			if flags.Changed(flagOut) {
				cfg.OutputDir = outDir
			}
			if flags.Changed(flagPollInterval) {
				cfg.PollInterval = pollInterval
			}
			switch {
			case flags.Changed(flagMaxPoll):
				cfg.MaxPollDuration = maxPoll
			case os.Getenv("PAPER_MAX_POLL_DURATION") == "" && cfg.MaxPollDuration == 0:
				cfg.MaxPollDuration = defaultMaxPoll
			}
			if flags.Changed(flagLogLevel) {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.log = logger.New(logger.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			})
			a.client, err = api.NewClient(api.Options{
				ServerURL: cfg.ServerURL,
				APIPrefix: cfg.APIPrefix,
				Timeout:   cfg.RequestTimeout,
				Logger:    a.log,
			})
			if err != nil {
				return err
			}
			a.store, err = storage.NewLocal(cfg.OutputDir)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&server, flagServer, "s", "", "変換サービスのURL (env: PAPER_SERVER_URL)")
	pf.StringVarP(&outDir, flagOut, "o", "", "成果物の保存先ディレクトリ (env: PAPER_OUTPUT_DIR)")
	pf.DurationVar(&pollInterval, flagPollInterval, 0, "ステータス確認の間隔 (env: PAPER_POLL_INTERVAL)")
	pf.DurationVar(&maxPoll, flagMaxPoll, defaultMaxPoll, "ステータス確認を打ち切るまでの時間、0 で無制限 (env: PAPER_MAX_POLL_DURATION)")
	pf.StringVar(&logLevel, flagLogLevel, "", "ログレベル debug|info|warn|error (env: LOG_LEVEL)")
	pf.BoolVar(&a.manifest, flagManifest, false, "保存先に manifest.json を書き出す")

	root.AddCommand(
		newMergeCmd(a),
		newOrganizeCmd(a),
		newSplitCmd(a),
		newCompressCmd(a),
		newDeskewCmd(a),
		newPDFToImagesCmd(a),
		newConvertImageCmd(a),
		newRotateCmd(a),
		newOCRCmd(a),
		newPDFToWordCmd(a),
		newCompressImageCmd(a),
		newResizeImageCmd(a),
		newCropImageCmd(a),
		newFilterImageCmd(a),
		newPagesCmd(a),
		newKindsCmd(a),
	)
	return root
}
