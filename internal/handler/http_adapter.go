package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HTTPTriggerRequest represents the structure of the JSON payload for HTTP triggers.
type HTTPTriggerRequest struct {
	Data struct {
		Req struct {
			URL             string              `json:"Url"`
			Method          string              `json:"Method"`
			Query           map[string]string   `json:"Query"`
			Headers         map[string][]string `json:"Headers"`
			Params          map[string]string   `json:"Params"`
			Body            string              `json:"Body"`
			IsBase64Encoded bool                `json:"isBase64Encoded"`
		} `json:"req"`
	} `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// HTTPTriggerResponse represents the structure of the JSON response for HTTP triggers.
type HTTPTriggerResponse struct {
	Outputs struct {
		Res struct {
			StatusCode int               `json:"statusCode"`
			Headers    map[string]string `json:"headers"`
			Body       string            `json:"body"`
		} `json:"res"`
	} `json:"Outputs"`
	Logs        []string `json:"Logs,omitempty"`
	ReturnValue any      `json:"ReturnValue,omitempty"`
}

// HandleHttpTrigger adapts the Azure Functions JSON POST request to a standard HTTP request/response.
// It wraps the provided next handler (usually the router).
func (d *Dependencies) HandleHttpTrigger(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := d.logger()

		var invokeReq HTTPTriggerRequest
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error("failed to read HTTP trigger body", zap.Error(err))
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
			logger.Error("failed to unmarshal HTTP trigger request", zap.Error(err))
			http.Error(w, "Failed to unmarshal request", http.StatusBadRequest)
			return
		}

		reqData := invokeReq.Data.Req
		logger.Debug("processing wrapped HTTP request", zap.String("method", reqData.Method), zap.String("url", reqData.URL))

		// Some hosts send base64 bodies without setting isBase64Encoded.
		var bodyReader io.Reader = http.NoBody
		if reqData.Body != "" {
			body := []byte(reqData.Body)
			if decoded, err := base64.StdEncoding.DecodeString(reqData.Body); err == nil {
				body = decoded
			}
			bodyReader = bytes.NewReader(body)
		}

		newReq, err := http.NewRequestWithContext(r.Context(), reqData.Method, reqData.URL, bodyReader)
		if err != nil {
			logger.Error("failed to create internal request", zap.Error(err))
			http.Error(w, "Failed to create internal request", http.StatusInternalServerError)
			return
		}
		// The outer request's chi route context would route the inner request as POST /HttpTrigger.
		newReq = newReq.WithContext(context.WithValue(newReq.Context(), chi.RouteCtxKey, nil))

		for k, v := range reqData.Headers {
			for _, val := range v {
				newReq.Header.Add(k, val)
			}
		}

		recorder := httptest.NewRecorder()
		next.ServeHTTP(recorder, newReq)

		respResult := recorder.Result()
		respBodyBytes, _ := io.ReadAll(respResult.Body)
		respResult.Body.Close()

		respHeaders := make(map[string]string)
		for k, v := range respResult.Header {
			respHeaders[k] = v[0]
		}

		jsonResp := HTTPTriggerResponse{}
		jsonResp.Outputs.Res.StatusCode = respResult.StatusCode
		jsonResp.Outputs.Res.Headers = respHeaders
		jsonResp.Outputs.Res.Body = string(respBodyBytes)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(jsonResp); err != nil {
			logger.Error("failed to encode HTTP trigger response", zap.Error(err))
		}
	}
}
