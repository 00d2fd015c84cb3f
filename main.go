package main

import (
	"log"
	"os"
	"strings"
	"time"

	"server/auth"
	"server/config"
	"server/db"
	"server/handlers"
	"server/models"
	"server/ratelimit"
	"server/utils"
	"server/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 30 * 86400 // 30 days
)

func sessionStoreKey() string {
	key := os.Getenv("SESSION_STORE_KEY")
	if key == "" {
		key = utils.RandSalt(32)
		log.Print("SESSION_STORE_KEY not set, sessions will not survive restarts")
	}
	return key
}

func main() {
	db.Init()
	models.Init()

	limiter := ratelimit.New(config.INVITE_RATE_LIMIT, time.Duration(config.INVITE_RATE_WINDOW_MIN)*time.Minute)
	limiter.StartSweeper(time.Duration(config.INVITE_RATE_SWEEP_MIN) * time.Minute)
	web.Init(limiter)

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "PUT", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(sessionStoreKey()))
	cookieStore.Options(sessions.Options{MaxAge: sessionExpirationTime})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	router.Use(utils.CacheControl(0)) // nothing this server returns is cacheable

	// Custom Auth Router
	authRouter := &auth.Router{Base: router}
	// User handlers
	router.POST("/user/login", handlers.UserLogin)
	authRouter.POST("/user/logout", handlers.UserLogout)
	authRouter.GET("/user/status", handlers.UserGetStatus)
	authRouter.POST("/user/save", handlers.UserSave, models.PermissionAdmin)
	authRouter.GET("/user/list", handlers.UserList, models.PermissionAdmin)
	// Bucket handlers
	authRouter.GET("/bucket/list", handlers.BucketList, models.PermissionAdmin)
	authRouter.POST("/bucket/save", handlers.BucketSave, models.PermissionAdmin)
	// CDN handlers
	authRouter.GET("/cdn/list", handlers.CdnList, models.PermissionAdmin)
	authRouter.POST("/cdn/save", handlers.CdnSave, models.PermissionAdmin)
	authRouter.GET("/cdn/get/:id", handlers.CdnGet, models.PermissionAdmin)
	authRouter.DELETE("/cdn/delete/:id", handlers.CdnDelete, models.PermissionAdmin)
	authRouter.GET("/cdn/files/:id", handlers.CdnFiles, models.PermissionAdmin)
	authRouter.GET("/cdn/files/:id/sign-get", handlers.CdnFileSignGet, models.PermissionAdmin)
	authRouter.POST("/cdn/files/:id/sign-put", handlers.CdnFileSignPut, models.PermissionAdmin)
	authRouter.POST("/cdn/files/:id/delete", handlers.CdnFileDelete, models.PermissionAdmin)
	// Invite handlers
	authRouter.GET("/invite/list", handlers.InviteList, models.PermissionAdmin)
	authRouter.POST("/invite/create", handlers.InviteCreate, models.PermissionAdmin)
	authRouter.GET("/invite/get/:id", handlers.InviteGet, models.PermissionAdmin)
	authRouter.POST("/invite/update/:id", handlers.InviteUpdate, models.PermissionAdmin)
	authRouter.POST("/invite/revoke/:id", handlers.InviteToggleRevocation, models.PermissionAdmin)
	authRouter.POST("/invite/token/:id", handlers.InviteRegenerateToken, models.PermissionAdmin)
	authRouter.GET("/invite/uploads/:id", handlers.InviteUploads, models.PermissionAdmin)
	// Audit log
	authRouter.GET("/audit/list", handlers.AuditList, models.PermissionAdmin)

	/*
	 *	Public upload flow (token in path, no auth)
	 */
	router.GET("/i/:token", web.InviteMetaView)
	router.POST("/i/:token/sign", web.InviteSignPost)
	router.POST("/i/:token/commit", web.InviteCommit)
	// Misc
	router.GET("/robots.txt", web.DisallowRobots)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Fatalf("Server stopped: %v", err)
}
