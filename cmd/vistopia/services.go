package main

import (
	"github.com/rizkirmdhn/vistopia/internal/catalog"
	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/downloader"
	"github.com/rizkirmdhn/vistopia/internal/transcript"
	"github.com/sirupsen/logrus"
)

func transcriptService(cfg *config.Config, root string, client *catalog.Client, log *logrus.Logger) *transcript.Service {
	return transcript.NewService(
		cfg.GetTranscriptConfig(),
		root,
		client,
		downloader.NewFetcher(cfg.GetDownloaderConfig(), log),
		transcript.NewChromeRenderer(cfg.GetTranscriptConfig(), log),
		log,
	)
}
