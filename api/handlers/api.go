package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/civiclens/civic-complaints-api/api"
	"github.com/civiclens/civic-complaints-api/api/scheduler"
	"github.com/civiclens/civic-complaints-api/config"
	"github.com/civiclens/civic-complaints-api/databases"
	"github.com/civiclens/civic-complaints-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	dbHelper  databases.DatabaseHelper
	hub       *Hub
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper), Secret: a.Config.JWTSecret}

	uploader := NewCloudinaryUploader(a.Config.CloudinaryURL)
	mailer := NewSendgridMailer(a.Config.SendgridAPIKey, a.Config.BaseURL)

	auth := Auth{DB: databases.NewUserDatabase(a.dbHelper), Config: a.Config}
	c := Complaint{
		DB:       databases.NewComplaintDatabase(a.dbHelper),
		DDB:      databases.NewDepartmentDatabase(a.dbHelper),
		UDB:      databases.NewUserDatabase(a.dbHelper),
		Uploader: uploader,
		Mailer:   mailer,
		Hub:      a.hub,
		Env:      a.Config.Environment,
	}
	d := Department{
		DB:  databases.NewDepartmentDatabase(a.dbHelper),
		UDB: databases.NewUserDatabase(a.dbHelper),
		CDB: databases.NewComplaintDatabase(a.dbHelper),
		Env: a.Config.Environment,
	}
	adm := Admin{
		UDB: databases.NewUserDatabase(a.dbHelper),
		DDB: databases.NewDepartmentDatabase(a.dbHelper),
		CDB: databases.NewComplaintDatabase(a.dbHelper),
		Env: a.Config.Environment,
	}
	cloudinaryHandler := CloudinaryHandler{}

	r := mux.NewRouter()

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.RequestIDMiddleware)
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/profile", m.Middleware(http.HandlerFunc(auth.ProfileHandler))).Methods("GET")
	apiCreate.Handle("/auth/profile", m.Middleware(http.HandlerFunc(auth.UpdateProfileHandler))).Methods("PUT")

	apiCreate.Handle("/complaints", m.Middleware(http.HandlerFunc(c.CreateComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints", m.Middleware(http.HandlerFunc(c.ComplaintHandler))).Methods("GET")
	apiCreate.Handle("/complaints/stats", m.Middleware(http.HandlerFunc(c.ComplaintStatsHandler))).Methods("GET")
	apiCreate.Handle("/complaints/{complaint_id}", m.Middleware(http.HandlerFunc(c.ComplaintByIDHandler))).Methods("GET")
	apiCreate.Handle("/complaints/{complaint_id}/status", m.Middleware(http.HandlerFunc(c.UpdateComplaintStatusHandler))).Methods("PUT")
	apiCreate.Handle("/complaints/{complaint_id}/comments", m.Middleware(http.HandlerFunc(c.AddCommentHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/vote", m.Middleware(http.HandlerFunc(c.VoteComplaintHandler))).Methods("POST")

	apiCreate.Handle("/admin/departments", m.Middleware(http.HandlerFunc(d.DepartmentsWithStatsHandler))).Methods("GET")
	apiCreate.Handle("/admin/departments", m.Middleware(http.HandlerFunc(d.CreateDepartmentHandler))).Methods("POST")
	apiCreate.Handle("/admin/departments/{department_id}", m.Middleware(http.HandlerFunc(d.UpdateDepartmentHandler))).Methods("PUT")
	apiCreate.Handle("/admin/departments/{department_id}", m.Middleware(http.HandlerFunc(d.DeleteDepartmentHandler))).Methods("DELETE")
	apiCreate.Handle("/admin/departments/{department_id}/assign-staff", m.Middleware(http.HandlerFunc(d.AssignStaffHandler))).Methods("POST")

	apiCreate.Handle("/admin/users", m.Middleware(http.HandlerFunc(adm.UsersHandler))).Methods("GET")
	apiCreate.Handle("/admin/users/{user_id}/status", m.Middleware(http.HandlerFunc(adm.UpdateUserStatusHandler))).Methods("PUT")
	apiCreate.Handle("/admin/users/{user_id}", m.Middleware(http.HandlerFunc(adm.DeleteUserHandler))).Methods("DELETE")
	apiCreate.Handle("/admin/analytics", m.Middleware(http.HandlerFunc(adm.SystemAnalyticsHandler))).Methods("GET")
	apiCreate.Handle("/admin/dashboard-stats", m.Middleware(http.HandlerFunc(adm.DashboardStatsHandler))).Methods("GET")

	apiCreate.Handle("/upload-signature", m.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/ws", m.Middleware(http.HandlerFunc(a.hub.SubscribeHandler))).Methods("GET")

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
	err = client.Connect(context.Background())
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("civic-complaints-api has connected to the database")

	a.hub = NewHub()
	go a.hub.Run()

	a.scheduler = scheduler.NewScheduler(
		databases.NewDepartmentDatabase(a.dbHelper),
		databases.NewComplaintDatabase(a.dbHelper),
	)
	a.scheduler.Start()

	a.Router = a.New()
	return nil
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
