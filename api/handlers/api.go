package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/findcrush/campus-crush-api/api"
	"github.com/findcrush/campus-crush-api/api/scheduler"
	"github.com/findcrush/campus-crush-api/config"
	"github.com/findcrush/campus-crush-api/databases"
	"github.com/findcrush/campus-crush-api/matching"
	"github.com/findcrush/campus-crush-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper

	hub     *NotificationHub
	chatHub *ChatHub
	matcher *matching.Service
	sweep   *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	userDB := databases.NewUserDatabase(a.dbHelper)
	crushDB := databases.NewCrushDatabase(a.dbHelper)
	notificationDB := databases.NewNotificationDatabase(a.dbHelper)
	matchSlotDB := databases.NewMatchSlotDatabase(a.dbHelper)
	chatDB := databases.NewChatDatabase(a.dbHelper)
	thoughtDB := databases.NewThoughtDatabase(a.dbHelper)
	pushTokenDB := databases.NewPushTokenDatabase(a.dbHelper)
	pushRequestDB := databases.NewPushRequestDatabase(a.dbHelper)

	if a.hub == nil {
		a.hub = NewNotificationHub()
	}
	if a.chatHub == nil {
		a.chatHub = NewChatHub(chatDB)
	}
	if a.matcher == nil {
		a.matcher = matching.NewService(crushDB, notificationDB, matchSlotDB, pushTokenDB, pushRequestDB, a.hub)
	}

	u := User{DB: userDB, PTDB: pushTokenDB}
	c := Crush{DB: userDB, CDB: crushDB, MSDB: matchSlotDB, Matcher: a.matcher}
	n := Notification{DB: notificationDB}
	chat := Chat{DB: chatDB, CDB: crushDB, UDB: userDB, Hub: a.chatHub}
	th := Thought{DB: thoughtDB, UDB: userDB}
	contact := Contact{}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// websockets authenticate via their query token, not the header middleware
	r.HandleFunc("/ws/notifications", a.hub.HandleNotificationsWebSocket)
	r.HandleFunc("/ws/chats/{channel_id}", chat.HandleChatWebSocket)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(mux.MiddlewareFunc(api.TimeoutMiddleware(30 * time.Second)))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UpdateUserByIDHandler))).Methods("PUT")
	apiCreate.Handle("/user/{user_id}/push-token", api.Middleware(http.HandlerFunc(u.RegisterPushTokenHandler))).Methods("POST")
	apiCreate.Handle("/user/{user_id}/push-token", api.Middleware(http.HandlerFunc(u.RemovePushTokenHandler))).Methods("DELETE")
	apiCreate.Handle("/users/discover", api.Middleware(http.HandlerFunc(u.UsersDiscoverHandler))).Methods("GET")

	apiCreate.Handle("/user/{user_id}/crushes", api.Middleware(http.HandlerFunc(c.SendCrushHandler))).Methods("POST")
	apiCreate.Handle("/user/{user_id}/crushes", api.Middleware(http.HandlerFunc(c.SentCrushesHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/admirers", api.Middleware(http.HandlerFunc(c.ReceivedCrushesHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/crush-status/{target_id}", api.Middleware(http.HandlerFunc(c.CrushStatusHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/match-slot", api.Middleware(http.HandlerFunc(c.MatchSlotHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/match-slot", api.Middleware(http.HandlerFunc(c.ConsumeMatchSlotHandler))).Methods("DELETE")

	apiCreate.Handle("/users/{user_id}/notifications", api.Middleware(http.HandlerFunc(n.GetUserNotificationsHandler))).Methods("GET")
	apiCreate.Handle("/users/{user_id}/notifications/badge", api.Middleware(http.HandlerFunc(n.BadgeHandler))).Methods("GET")
	apiCreate.Handle("/users/{user_id}/notifications/{notification_id}", api.Middleware(http.HandlerFunc(n.DeleteNotificationHandler))).Methods("DELETE")

	apiCreate.Handle("/chats/{user_id}/{other_id}/channel", api.Middleware(http.HandlerFunc(chat.ResolveChannelHandler))).Methods("GET")
	apiCreate.Handle("/chats/{channel_id}/messages", api.Middleware(http.HandlerFunc(chat.MessagesHandler))).Methods("GET")
	apiCreate.Handle("/chats/{channel_id}/messages", api.Middleware(http.HandlerFunc(chat.PostMessageHandler))).Methods("POST")

	apiCreate.Handle("/thoughts", api.Middleware(http.HandlerFunc(th.CreateThoughtHandler))).Methods("POST")
	apiCreate.Handle("/thoughts", api.Middleware(http.HandlerFunc(th.ListThoughtsHandler))).Methods("GET")
	apiCreate.Handle("/thoughts/{thought_id}", api.Middleware(http.HandlerFunc(th.DeleteThoughtHandler))).Methods("DELETE")
	apiCreate.Handle("/thoughts/{thought_id}/like", api.Middleware(http.HandlerFunc(th.LikeThoughtHandler))).Methods("POST")
	apiCreate.Handle("/thoughts/{thought_id}/like", api.Middleware(http.HandlerFunc(th.UnlikeThoughtHandler))).Methods("DELETE")
	apiCreate.Handle("/thoughts/{thought_id}/comments", api.Middleware(http.HandlerFunc(th.CommentThoughtHandler))).Methods("POST")
	apiCreate.Handle("/users/{user_id}/thoughts", api.Middleware(http.HandlerFunc(th.MyThoughtsHandler))).Methods("GET")

	apiCreate.Handle("/contact", http.HandlerFunc(contact.ContactHandler)).Methods("POST")
	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("campus-crush-api has connected to the database")

	// start the push relay sweep
	a.sweep = scheduler.NewScheduler(
		databases.NewPushRequestDatabase(a.dbHelper),
		databases.NewPushTokenDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
	)
	a.sweep.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
