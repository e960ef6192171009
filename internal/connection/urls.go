package connection

import (
	"fmt"
	"strings"

	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/router"
)

// Stream types.
const (
	StreamData         = "data"
	StreamDataSandbox  = "data_sandbox"
	StreamDataTest     = "data_test"
	StreamAccount      = "account"
	StreamAccountPaper = "account_paper"
)

// Stream endpoints.
const (
	DataStreamHost        = "wss://stream.data.alpaca.markets"
	DataSandboxStreamHost = "wss://stream.data.sandbox.alpaca.markets"
	DataTestStreamURL     = "wss://stream.data.alpaca.markets/v2/test"
	AccountStreamURL      = "wss://api.alpaca.markets/stream"
	PaperAccountStreamURL = "wss://paper-api.alpaca.markets/stream"
)

// StreamURL derives the WebSocket URL for a stream type. For data streams
// the version may carry a path ("v1beta3/crypto/us"). The feed selects a
// stock feed and is appended to the v2 path only.
func StreamURL(streamType, version, feed string) (string, error) {
	switch streamType {
	case StreamData, StreamDataSandbox:
		host := DataStreamHost
		if streamType == StreamDataSandbox {
			host = DataSandboxStreamHost
		}
		if version == "" {
			version = config.DefaultStreamVersion
		}
		version = strings.Trim(version, "/")
		u := host + "/" + version
		if feed != "" && version == config.DefaultStreamVersion {
			u += "/" + feed
		}
		return u, nil
	case StreamDataTest:
		return DataTestStreamURL, nil
	case StreamAccount:
		return AccountStreamURL, nil
	case StreamAccountPaper:
		return PaperAccountStreamURL, nil
	default:
		return "", &config.ConfigurationError{Field: "stream.type", Reason: fmt.Sprintf("unknown stream type %q", streamType)}
	}
}

// FamilyFor returns the stream family served by a stream type.
func FamilyFor(streamType string) (router.Family, error) {
	switch streamType {
	case StreamAccount, StreamAccountPaper:
		return router.FamilyAccount, nil
	case StreamData, StreamDataSandbox, StreamDataTest:
		return router.FamilyMarketData, nil
	default:
		return 0, &config.ConfigurationError{Field: "stream.type", Reason: fmt.Sprintf("unknown stream type %q", streamType)}
	}
}
