package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// SpreadsheetIDFromURL extracts the spreadsheet id from a Google Sheets
// URL. A bare id is returned unchanged.
func SpreadsheetIDFromURL(ref string) (string, error) {
	if m := spreadsheetIDPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if ref != "" && regexp.MustCompile(`^[a-zA-Z0-9_-]+$`).MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("not a spreadsheet reference: %q", ref)
}

// apiReader adapts the Sheets service to gridReader.
type apiReader struct {
	srv *sheets.Service
}

func (a *apiReader) Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := a.srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a *apiReader) Grid(ctx context.Context, spreadsheetID, rng string) ([]*sheets.RowData, error) {
	resp, err := a.srv.Spreadsheets.Get(spreadsheetID).
		Ranges(rng).
		IncludeGridData(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Sheets) == 0 || len(resp.Sheets[0].Data) == 0 {
		return nil, nil
	}
	return resp.Sheets[0].Data[0].RowData, nil
}

// createSheetsService creates a read-only Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token, err := configuredToken(config)
		if err != nil {
			return nil, err
		}

		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

func configuredToken(config Config) (*oauth2.Token, error) {
	if config.RefreshToken != "" {
		return &oauth2.Token{RefreshToken: config.RefreshToken, TokenType: "Bearer"}, nil
	}
	token, err := LoadToken(config.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load token file: %w", err)
	}
	return token, nil
}

// LoadToken loads a saved OAuth2 token.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}
