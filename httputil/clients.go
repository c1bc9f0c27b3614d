package httputil

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"auctionpipe/config"
)

type Clients struct {
	Scraping *http.Client // optionally proxied, for target listing sites
	Store    *http.Client // direct, for the record-store web app
}

func NewClients(proxyCfg *config.ProxyConfig) *Clients {
	scraping := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	if proxyCfg != nil && proxyCfg.URL != "" {
		if proxyURL, err := url.Parse(proxyCfg.URL); err == nil {
			scraping.Transport = &http.Transport{
				Proxy:             http.ProxyURL(proxyURL),
				ForceAttemptHTTP2: false,
				TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
			}
		}
	}

	return &Clients{
		Scraping: scraping,
		Store:    &http.Client{Timeout: 30 * time.Second},
	}
}
