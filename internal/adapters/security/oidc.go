package security

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lumengallery/auth-service/internal/ports"
)

// GoogleVerifierConfig configures the Google sign-in verifier. The issuer is
// fixed; only client credentials vary per deployment.
type GoogleVerifierConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string
	HTTPClient   *http.Client
}

// GoogleVerifier implements the federated-login code exchange against
// Google's OpenID Connect endpoints. Endpoints come from the issuer's
// discovery document; id_tokens are checked against the published JWKS.
type GoogleVerifier struct {
	cfg        GoogleVerifierConfig
	httpClient *http.Client
}

type oidcDiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

type oidcTokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func NewGoogleVerifier(cfg GoogleVerifierConfig) (*GoogleVerifier, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("google client_id is required")
	}
	if strings.TrimSpace(cfg.IssuerURL) == "" {
		cfg.IssuerURL = "https://accounts.google.com"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &GoogleVerifier{cfg: cfg, httpClient: httpClient}, nil
}

func (v *GoogleVerifier) BuildAuthorizeURL(ctx context.Context, redirectURI, state, nonce string) (string, error) {
	if strings.TrimSpace(redirectURI) == "" || strings.TrimSpace(state) == "" || strings.TrimSpace(nonce) == "" {
		return "", fmt.Errorf("redirect_uri, state and nonce are required")
	}
	if _, err := url.ParseRequestURI(redirectURI); err != nil {
		return "", fmt.Errorf("invalid redirect_uri: %w", err)
	}

	discovery, err := v.discover(ctx)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client_id", v.cfg.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(scopesOrDefault(v.cfg.Scopes), " "))
	q.Set("state", state)
	q.Set("nonce", nonce)

	return discovery.AuthorizationEndpoint + "?" + q.Encode(), nil
}

func (v *GoogleVerifier) ExchangeCode(ctx context.Context, code, redirectURI, nonce string) (ports.OIDCIdentity, error) {
	if strings.TrimSpace(code) == "" {
		return ports.OIDCIdentity{}, fmt.Errorf("authorization code is required")
	}

	discovery, err := v.discover(ctx)
	if err != nil {
		return ports.OIDCIdentity{}, err
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", v.cfg.ClientID)
	if strings.TrimSpace(v.cfg.ClientSecret) != "" {
		form.Set("client_secret", v.cfg.ClientSecret)
	}
	if strings.TrimSpace(redirectURI) != "" {
		form.Set("redirect_uri", redirectURI)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, discovery.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return ports.OIDCIdentity{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return ports.OIDCIdentity{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ports.OIDCIdentity{}, fmt.Errorf("oidc token exchange failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokenResp oidcTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return ports.OIDCIdentity{}, fmt.Errorf("decode token response: %w", err)
	}
	if strings.TrimSpace(tokenResp.IDToken) == "" {
		return ports.OIDCIdentity{}, fmt.Errorf("id_token missing in token response")
	}

	keySet, err := v.fetchJWKS(ctx, discovery.JWKSURI)
	if err != nil {
		return ports.OIDCIdentity{}, err
	}

	identity, err := validateIDToken(tokenResp.IDToken, keySet, discovery.Issuer, v.cfg.ClientID, strings.TrimSpace(nonce))
	if err != nil {
		return ports.OIDCIdentity{}, err
	}
	identity.Provider = "google"
	return identity, nil
}

func (v *GoogleVerifier) discover(ctx context.Context) (oidcDiscoveryDocument, error) {
	discoveryURL := strings.TrimRight(strings.TrimSpace(v.cfg.IssuerURL), "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return oidcDiscoveryDocument{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return oidcDiscoveryDocument{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return oidcDiscoveryDocument{}, fmt.Errorf("oidc discovery failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc oidcDiscoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return oidcDiscoveryDocument{}, fmt.Errorf("decode discovery document: %w", err)
	}

	if strings.TrimSpace(doc.Issuer) == "" {
		doc.Issuer = strings.TrimSpace(v.cfg.IssuerURL)
	}
	if strings.TrimSpace(doc.AuthorizationEndpoint) == "" || strings.TrimSpace(doc.TokenEndpoint) == "" || strings.TrimSpace(doc.JWKSURI) == "" {
		return oidcDiscoveryDocument{}, fmt.Errorf("discovery document missing required endpoints")
	}
	return doc, nil
}

func (v *GoogleVerifier) fetchJWKS(ctx context.Context, jwksURI string) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("oidc jwks fetch failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey)
	for i, key := range doc.Keys {
		if strings.ToUpper(strings.TrimSpace(key.Kty)) != "RSA" {
			continue
		}
		nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(key.N))
		if err != nil {
			return nil, fmt.Errorf("decode jwks n: %w", err)
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(key.E))
		if err != nil {
			return nil, fmt.Errorf("decode jwks e: %w", err)
		}
		eBig := new(big.Int).SetBytes(eBytes)
		if !eBig.IsInt64() {
			return nil, fmt.Errorf("invalid jwks exponent for key %s", key.Kid)
		}
		eValue := int(eBig.Int64())
		if eValue <= 1 {
			return nil, fmt.Errorf("invalid jwks exponent for key %s", key.Kid)
		}

		kid := strings.TrimSpace(key.Kid)
		if kid == "" {
			kid = fmt.Sprintf("key-%d", i)
		}
		keys[kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: eValue,
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no RSA keys found in jwks")
	}
	return keys, nil
}

func validateIDToken(raw string, keySet map[string]*rsa.PublicKey, issuer, clientID, expectedNonce string) (ports.OIDCIdentity, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(token *jwt.Token) (any, error) {
			if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			kid, _ := token.Header["kid"].(string)
			if strings.TrimSpace(kid) != "" {
				key, ok := keySet[kid]
				if !ok {
					return nil, fmt.Errorf("unknown key id: %s", kid)
				}
				return key, nil
			}
			if len(keySet) == 1 {
				for _, key := range keySet {
					return key, nil
				}
			}
			return nil, fmt.Errorf("missing key id")
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(clientID),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return ports.OIDCIdentity{}, fmt.Errorf("validate id_token: %w", err)
	}
	if !parsed.Valid {
		return ports.OIDCIdentity{}, fmt.Errorf("invalid id_token")
	}

	subject := stringClaim(claims, "sub")
	if strings.TrimSpace(subject) == "" {
		return ports.OIDCIdentity{}, fmt.Errorf("id_token missing sub")
	}
	nonce := stringClaim(claims, "nonce")
	if strings.TrimSpace(expectedNonce) != "" && strings.TrimSpace(nonce) != strings.TrimSpace(expectedNonce) {
		return ports.OIDCIdentity{}, fmt.Errorf("nonce mismatch")
	}

	return ports.OIDCIdentity{
		ProviderSub:   subject,
		Email:         strings.ToLower(strings.TrimSpace(stringClaim(claims, "email"))),
		EmailVerified: boolClaim(claims["email_verified"]),
		Name:          strings.TrimSpace(stringClaim(claims, "name")),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, ok := claims[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func boolClaim(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		default:
			return false
		}
	default:
		return false
	}
}

func scopesOrDefault(scopes []string) []string {
	if len(scopes) == 0 {
		return []string{"openid", "email", "profile"}
	}
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		trimmed := strings.TrimSpace(scope)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return []string{"openid", "email", "profile"}
	}
	return out
}
