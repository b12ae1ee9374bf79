// Package logger はstatusdeckのJSON構造化ログのセットアップを提供する。
// serve/migrateの両サブコマンドが起動直後に呼び、以降は全パッケージが
// slogのデフォルトロガー経由で1行1イベントのJSONを出力する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。コンテナ環境では標準出力への
// 出力をログ収集側が拾う前提。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w)
	slog.SetDefault(logger)
}
