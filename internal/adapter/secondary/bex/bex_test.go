package bex

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/cashflow/bkm-gateway/internal/core"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func testConfig(code string) core.BankConfig {
	return core.NewBankConfig(code, core.VposTemplate{
		BankName: "AKBANK", UserID: "akapi", Password: "TEST1234", ServiceURL: "http://srvirt01:7200/akbank",
		Extras: []core.Extra{{Key: "ClientId", Value: "100111222"}, {Key: "storekey", Value: "TEST1234"}},
	})
}

func TestVposEncryptor(t *testing.T) {
	key := make([]byte, chacha20poly1305.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	enc, err := NewVposEncryptor(key)
	require.NoError(t, err)

	first, err := enc.Encrypt(testConfig("0046"))
	require.NoError(t, err)
	second, err := enc.Encrypt(testConfig("0046"))
	require.NoError(t, err)
	other, err := enc.Encrypt(testConfig("0032"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.NotContains(t, first, "TEST1234")

	sealed, err := base64.StdEncoding.DecodeString(first)
	require.NoError(t, err)
	aead, err := chacha20poly1305.NewX(key)
	require.NoError(t, err)
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(plaintext, &decoded))
	assert.Equal(t, "0046", decoded["bankIndicator"])
	assert.Equal(t, "akapi", decoded["vposUserId"])
}

func TestVposEncryptorRejectsShortKey(t *testing.T) {
	_, err := NewVposEncryptor([]byte("short"))
	assert.Error(t, err)
}

func TestRSAVerifier(t *testing.T) {
	key := testKey(t)
	verifier := NewRSAVerifier(&key.PublicKey)

	signature, err := signSHA256RSA("ticket-1", key)
	require.NoError(t, err)

	assert.True(t, verifier.Verify("ticket-1", signature))
	assert.False(t, verifier.Verify("ticket-2", signature))
	assert.False(t, verifier.Verify("ticket-1", "not base64!"))
	assert.False(t, verifier.Verify("ticket-1", ""))
	assert.False(t, verifier.Verify("", signature))
}

func TestLoadKeys(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	privPath := filepath.Join(dir, "merchant.pem")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{
		Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPath := filepath.Join(dir, "bex.pem")
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o600))

	loadedPriv, err := LoadPrivateKey(privPath)
	require.NoError(t, err)
	assert.True(t, key.Equal(loadedPriv))

	loadedPub, err := LoadPublicKey(pubPath)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(loadedPub))

	_, err = LoadPublicKey(filepath.Join(dir, "missing.pem"))
	assert.Error(t, err)
}

func TestDecodeKey(t *testing.T) {
	key, err := DecodeKey("00ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, key)

	_, err = DecodeKey("zz")
	assert.Error(t, err)
}

func TestClient(t *testing.T) {
	key := testKey(t)
	var gotTicket ticketRequest
	var gotNonce core.NonceResponse

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case endpointLogin:
			var req loginRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if !NewRSAVerifier(&key.PublicKey).Verify(req.ID, req.Signature) {
				w.Write([]byte(`{"result":"fail","message":"bad signature"}`))
				return
			}
			w.Write([]byte(`{"result":"ok","data":{"token":"conn-token"}}`))
		case "/merchant/ticket":
			assert.Equal(t, "Bearer conn-token", r.Header.Get("Authorization"))
			assert.Equal(t, "payment", r.URL.Query().Get("type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotTicket))
			w.Write([]byte(`{"result":"ok","data":{"id":"t-1","path":"/p/1","token":"tk"}}`))
		case endpointNonce:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotNonce))
			w.Write([]byte(`{"result":"ok"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL: srv.URL + "/", JsURL: "https://js.example/bex.js", MerchantID: "merchant-1", PrivateKey: key,
	})
	ctx := context.Background()

	token, err := client.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "conn-token", token)

	ticket, err := client.OneTimeTicket(ctx, token, core.TicketRequest{
		OrderID: "123456", Amount: 500013, CampaignCode: "my campaign",
		InstallmentURL: "https://m/installments", NonceURL: "https://m/nonce",
	})
	require.NoError(t, err)
	assert.Equal(t, &core.Ticket{ID: "t-1", Path: "/p/1", Token: "tk"}, ticket)
	assert.Equal(t, "5000,13", gotTicket.Amount)
	assert.Equal(t, "123456", gotTicket.OrderID)
	assert.Equal(t, "https://m/nonce", gotTicket.NonceURL)

	reply := core.NonceResponse{ID: "/p/1", Nonce: "n1", Result: true}
	require.NoError(t, client.SendNonceResponse(ctx, token, reply))
	assert.Equal(t, reply, gotNonce)

	assert.Equal(t, "https://js.example/bex.js", client.BaseJsURL())
}

func TestClientErrors(t *testing.T) {
	key := testKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case endpointLogin:
			w.Write([]byte(`{"result":"fail","message":"unknown merchant"}`))
		case endpointNonce:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MerchantID: "m", PrivateKey: key})
	ctx := context.Background()

	_, err := client.Login(ctx)
	assert.ErrorContains(t, err, "unknown merchant")

	_, err = client.OneTimeTicket(ctx, "tok", core.TicketRequest{OrderID: "1", Amount: 100})
	assert.Error(t, err)

	assert.ErrorContains(t, client.SendNonceResponse(ctx, "tok", core.NonceResponse{}), "status 500")
}
