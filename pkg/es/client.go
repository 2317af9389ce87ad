// Package es provides the Elasticsearch client used by the elasticsearch
// vector-store backend.
package es

import (
	"crypto/tls"
	"net/http"

	"domain-chat-go/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
)

var ESClient *elasticsearch.Client

// InitES connects the Elasticsearch client. Per-domain indexes are created
// lazily by the vector-store builder, not here.
func InitES(esCfg config.ElasticConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return nil
}
