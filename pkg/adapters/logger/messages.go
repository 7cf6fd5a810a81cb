package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration
		"Converting %s for %s":          "%s を %s 向けに変換中",
		"Conversion completed in %d ms": "変換が %d ms で完了しました",
		"Output saved to %s":            "出力を %s に保存しました",
		"Summary saved to %s":           "サマリーを %s に保存しました",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
		"Conversion failed: %v":         "変換に失敗しました: %v",

		// Resolve stage
		"No tensor URL given, using placeholder for %s": "テンソルURLが未指定のため %s のプレースホルダーを使用します",
		"Fetching tensor payload from %s":               "%s からテンソルを取得中",
		"Reading tensor payload from %s":                "%s からテンソルを読み込み中",
		"Payload resolved: %d frames, %dx%dx%d":         "ペイロード解決: %d フレーム, %dx%dx%d",

		// Encode stage
		"Staging %d frames in %s":                 "%d フレームを %s に配置中",
		"Encoding %d frames at %.1f fps (crf %d)": "%d フレームを %.1f fps (crf %d) でエンコード中",
		"Video encoded: %d bytes":                 "動画エンコード完了: %d バイト",
		"Video: %s %dx%d, %d samples, %d ms":      "動画: %s %dx%d, %d サンプル, %d ms",

		// Server
		"Listening on %s":                         "%s で待ち受け中",
		"Server stopped":                          "サーバーを停止しました",
		"Request %s failed: %v":                   "リクエスト %s が失敗しました: %v",
		"ffmpeg not found, conversions will fail": "ffmpeg が見つかりません。変換は失敗します",

		// Warnings
		"Failed to remove staged file %s: %v": "一時ファイル %s の削除に失敗しました: %v",
		"Failed to probe encoded video: %v":   "エンコード済み動画の解析に失敗しました: %v",
		"Failed to save debug output: %v":     "デバッグ出力の保存に失敗しました: %v",
	})
}
