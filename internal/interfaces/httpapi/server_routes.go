package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/payments", handler.CreatePayment)
	mux.HandleFunc("GET /v1/payments/{orderID}/status", handler.GetPaymentStatus)
	mux.HandleFunc("POST /v1/payments/notifications", handler.HandlePaymentNotification)
	mux.HandleFunc("GET /v1/streamers/{streamerID}/queue", handler.ListStreamerQueue)
	mux.HandleFunc("GET /v1/streamers/{streamerID}/stats", handler.GetStreamerStats)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/sessions", RequireAuth(verifier, http.HandlerFunc(handler.StartSession)))
	mux.Handle("GET /v1/sessions", RequireAuth(verifier, http.HandlerFunc(handler.ListSessions)))
	mux.Handle("POST /v1/sessions/{sessionID}/end", RequireAuth(verifier, http.HandlerFunc(handler.EndSession)))
	mux.Handle("POST /v1/sessions/{sessionID}/cancel", RequireAuth(verifier, http.HandlerFunc(handler.CancelSession)))
	mux.Handle("POST /v1/sessions/{sessionID}/notes", RequireAuth(verifier, http.HandlerFunc(handler.AppendSessionNotes)))
	mux.Handle("DELETE /v1/queue/{entryID}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveQueueEntry)))
	mux.Handle("GET /v1/donors", RequireAuth(verifier, http.HandlerFunc(handler.ListDonors)))
	mux.Handle("PUT /v1/donors/{donorID}/moderation", RequireAuth(verifier, http.HandlerFunc(handler.SetDonorModeration)))
	mux.Handle("GET /v1/donations", RequireAuth(verifier, http.HandlerFunc(handler.ListDonations)))
	mux.Handle("GET /v1/mvp", RequireAuth(verifier, http.HandlerFunc(handler.ListMvpRecords)))
	mux.Handle("POST /v1/mvp/{recordID}/claims", RequireAuth(verifier, http.HandlerFunc(handler.ClaimMvpReward)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/payments/override", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.OverridePaymentStatus)))
	mux.Handle("POST /v1/internal/poll", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPollPass)))
}
