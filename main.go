package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"parley/internal/handlers"
	"parley/internal/middleware"
	"parley/internal/store/sqlstore"
	"parley/internal/ws"
)

var (
	addr   = flag.String("addr", envOr("PARLEY_ADDR", ":4001"), "http service address")
	dbPath = flag.String("db", envOr("PARLEY_DB", "parley.db"), "sqlite database path")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	store, err := sqlstore.New(*dbPath)
	if err != nil {
		log.Fatal(err)
	}

	hub := ws.NewHub(store)
	go hub.Run()

	authHandler := &handlers.AuthHandler{Store: store}
	messageHandler := &handlers.MessageHandler{Store: store, Hub: hub}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	// API Endpoints
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/users/online", messageHandler.GetOnlineUsers).Methods("GET")
	r.HandleFunc("/messages", messageHandler.GetRoomMessages).Methods("GET")
	r.Handle("/messages/private/{userId}",
		middleware.AuthMiddleware(http.HandlerFunc(messageHandler.GetPrivateMessages))).Methods("GET")

	// WebSocket endpoint: identity arrives over the socket via registerUser.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})

	log.Println("Starting server on", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
