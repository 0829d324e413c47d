package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"pong": "it work"})
	})

	r.Route("/llm", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Delete("/chat", s.handle(s.deleteChat))
		r.Post("/chat/insert", s.handle(s.insertChat))
		r.Get("/chat/queryById", s.handle(s.queryChat))
		r.Post("/chat/update", s.handle(s.updateChat))
		r.Get("/chat/history", s.handle(s.chatHistory))

		r.Get("/vote", s.handle(s.votesByChat))
		r.Patch("/vote", s.handle(s.vote))

		r.Get("/message/queryByChatId", s.handle(s.messagesByChat))
		r.Get("/message/progress", s.handle(s.messageProgress))

		r.Post("/dashboard/query", s.handle(s.queryDashboard))
		r.Get("/dashboard/layout", s.handle(s.dashboardLayout))

		r.Get("/metadata/queryByTableName", s.handle(s.metadataByTable))
	})
}
