// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/yandex"
)

const yandexUserInfoURL = "https://login.yandex.ru/info?format=json"

// YandexProfile is the subset of the Yandex userinfo response we use.
type YandexProfile struct {
	ID           string `json:"id"`
	Login        string `json:"login"`
	DefaultEmail string `json:"default_email"`
	DisplayName  string `json:"display_name"`
}

// YandexLinker runs the OAuth authorization-code flow against Yandex so
// users can link their mailbox to the assistant.
type YandexLinker struct {
	oauth       *oauth2.Config
	tokens      *ProviderTokens
	userInfoURL string
}

// NewYandexLinker wires the flow. clientID/clientSecret come from the
// Yandex OAuth application registration.
func NewYandexLinker(clientID, clientSecret, redirectURL string, tokens *ProviderTokens) *YandexLinker {
	return &YandexLinker{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     yandex.Endpoint,
		},
		tokens:      tokens,
		userInfoURL: yandexUserInfoURL,
	}
}

// AuthURL builds the authorization URL. state carries the user ID so the
// callback knows which account to link; it is signed upstream.
func (l *YandexLinker) AuthURL(state string) string {
	return l.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the authorization code for a token, fetches the Yandex
// profile, and stores the token for the user.
func (l *YandexLinker) Exchange(ctx context.Context, userID, code string) (*YandexProfile, error) {
	token, err := l.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	profile, err := l.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := l.tokens.Save(ctx, userID, token); err != nil {
		return nil, err
	}
	return profile, nil
}

// Linked reports whether the user currently holds a provider token.
// A token that expired out of the store counts as not linked.
func (l *YandexLinker) Linked(ctx context.Context, userID string) (bool, error) {
	_, err := l.tokens.Get(ctx, userID)
	if errors.Is(err, ErrNoProviderToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *YandexLinker) fetchProfile(ctx context.Context, token *oauth2.Token) (*YandexProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+token.AccessToken)

	resp, err := l.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch yandex profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yandex userinfo returned %d: %s", resp.StatusCode, body)
	}

	var profile YandexProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("parse yandex profile: %w", err)
	}
	return &profile, nil
}
