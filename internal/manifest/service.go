package manifest

import (
	"context"
	"errors"
	"fmt"

	"powerdata/cli/internal/httperrors"

	"github.com/pterm/pterm"
)

// ErrNoSource is returned when no manifest location is configured.
var ErrNoSource = errors.New("no data-sources manifest configured")

// Get returns the manifest at source, reading it at most once per process.
func Get(ctx context.Context, source string) (*Manifest, error) {
	if source == "" {
		return nil, ErrNoSource
	}
	if cached := GetCached(source); cached != nil {
		return cached, nil
	}

	m, err := load(ctx, source)
	if err != nil {
		return nil, formatLoadError(source, err)
	}
	SetCached(m)
	return m, nil
}

// formatLoadError prints hints for a manifest that could not be loaded.
func formatLoadError(source string, err error) error {
	if isRemote(source) {
		return httperrors.FormatNetworkError(err, "loading data sources from "+httperrors.ExtractHostFromURL(source))
	}
	pterm.Error.Printfln("Cannot load data sources from %s", source)
	pterm.Println()
	pterm.Info.Println("Please check:")
	pterm.Println("  • The path set in app.data_sources or POWERDATA_DATA_SOURCES")
	pterm.Println("  • That the file is a dataSourcesInfo JSON object keyed by table name")
	pterm.Println()

	return fmt.Errorf("load data sources: %w", err)
}
