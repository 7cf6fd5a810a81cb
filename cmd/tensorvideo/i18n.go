// Package main provides localization for the tensorvideo CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration":     "設定",
		"Logging":           "ログ",
		"Server":            "サーバー",
		"Input":             "入力",
		"Output":            "出力先",
		"Video and Quality": "動画と品質",
		"Debug":             "デバッグ",

		// Root command
		"Convert robot episode tensors into MP4 videos":                                                "ロボットエピソードのテンソルをMP4動画に変換",
		"tensorvideo turns camera frame tensors recorded during robot episodes into H.264 MP4 videos.": "tensorvideoはロボットエピソード中に記録されたカメラフレームのテンソルをH.264のMP4動画に変換します。",

		// Global flags
		"Path to YAML configuration file":      "YAML設定ファイルのパス",
		"Path to ffmpeg executable":            "ffmpeg実行ファイルのパス",
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Serve command
		"Serve the conversion HTTP endpoint":                         "変換用HTTPエンドポイントを起動",
		"Serve POST and GET /api/tensor-to-video until interrupted.": "中断されるまで POST と GET /api/tensor-to-video を提供します。",
		"Listen address (default: :8080)":                            "待ち受けアドレス（デフォルト: :8080）",

		// Encode command
		"Convert one tensor payload into an MP4 file": "1つのテンソルペイロードをMP4ファイルに変換",
		"Fetch or read a tensor payload and encode it into an MP4 file. Without a tensor URL a placeholder payload is used.": "テンソルペイロードを取得または読み込み、MP4ファイルにエンコードします。テンソルURLがない場合はプレースホルダーを使用します。",
		"Tensor payload URL, file:// URL or local path":                                                                      "テンソルペイロードのURL、file:// URL、またはローカルパス",
		"Camera name (default: Front Camera)":                                                                                "カメラ名（デフォルト: Front Camera）",
		"Output MP4 file path (required)":                                                                                    "出力MP4ファイルパス（必須）",
		"Output execution summary to file (Markdown format)":                                                                 "実行サマリーをファイルに出力（Markdown形式）",
		"Quality preset (low, medium, high)":                                                                                 "品質プリセット（low, medium, high）",
		"Geometry mode (payload, frame)":                                                                                     "ジオメトリモード（payload, frame）",
		"Enable debug output":                                                                                                "デバッグ出力を有効化",
		"Directory for debug output":                                                                                         "デバッグ出力のディレクトリ",

		// Version command
		"Show version information":    "バージョン情報を表示",
		"tensorvideo version %s":      "tensorvideo バージョン %s",
		"Failed to write summary: %v": "サマリーの書き込みに失敗しました: %v",

		// Summary content
		"Conversion Summary": "変換サマリー",
		"Source":             "入力元",
		"Tensor URL":         "テンソルURL",
		"Camera":             "カメラ",
		"Payload":            "ペイロード",
		"Geometry":           "ジオメトリ",
		"Frames":             "フレーム数",
		"First Timestamp":    "最初のタイムスタンプ",
		"Last Timestamp":     "最後のタイムスタンプ",
		"Settings":           "設定",
		"Quality":            "品質",
		"Codec":              "コーデック",
		"Preset":             "プリセット",
		"Pixel Format":       "ピクセルフォーマット",
		"CRF":                "CRF値",
		"Frame Rate":         "フレームレート",
		"Geometry Mode":      "ジオメトリモード",
		"Video":              "動画",
		"Resolution":         "解像度",
		"Samples":            "サンプル数",
		"Duration":           "再生時間",
		"File Size":          "ファイルサイズ",
		"Conversion Time":    "変換時間",
		"Generated at":       "生成日時",
		"Item":               "項目",
		"Value":              "値",
	})
}
