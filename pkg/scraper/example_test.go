package scraper_test

import (
	"context"
	"fmt"

	"xhscrawl/pkg/config"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/scraper"
)

func ExampleScraper_UserNotes() {
	cfg := config.DefaultConfig()
	// a logged-in web session is required
	cfg.XHS.Cookies = "a1=YOUR_A1; web_session=YOUR_SESSION"

	s, err := scraper.New(cfg, logger.NewNopLogger())
	if err != nil {
		fmt.Printf("Failed to create scraper: %v\n", err)
		return
	}

	res := s.UserNotes(context.Background(),
		"https://www.xiaohongshu.com/user/profile/5f0c1a?xsec_token=ABxyz&xsec_source=pc_feed")
	if !res.OK {
		fmt.Printf("Crawl stopped early: %s\n", res.Message)
	}
	for _, note := range res.Data {
		fmt.Println(note.Key(), note.Title())
	}
}
