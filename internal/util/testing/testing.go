package test_utils

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func MakeRequest(
	router *gin.Engine,
	method string,
	url string,
	headers map[string]string,
	body any,
) *httptest.ResponseRecorder {
	var requestBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		requestBody = bytes.NewBuffer(encoded)
	}

	request := httptest.NewRequest(method, url, requestBody)
	request.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		request.Header.Set(name, value)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	return recorder
}

// MakeApiKeyRequest issues a request authenticated with X-API-Key.
func MakeApiKeyRequest(
	router *gin.Engine,
	method string,
	url string,
	rawKey string,
	body any,
) *httptest.ResponseRecorder {
	return MakeRequest(router, method, url, map[string]string{"X-API-Key": rawKey}, body)
}

// MakeBearerRequest issues a request with an Authorization bearer value
// (JWT session token or raw API key).
func MakeBearerRequest(
	router *gin.Engine,
	method string,
	url string,
	token string,
	body any,
) *httptest.ResponseRecorder {
	return MakeRequest(router, method, url, map[string]string{"Authorization": "Bearer " + token}, body)
}

func MakeRequestAndUnmarshal(
	t *testing.T,
	router *gin.Engine,
	method string,
	url string,
	headers map[string]string,
	body any,
	expectedStatus int,
	response any,
) {
	t.Helper()

	recorder := MakeRequest(router, method, url, headers, body)
	require.Equal(t, expectedStatus, recorder.Code, "unexpected status, body: %s", recorder.Body.String())

	if response != nil {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), response))
	}
}
