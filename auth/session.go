package auth

import (
	"log"

	"server/db"
	"server/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionUserID = "uid"

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) LoginUser(user *models.User) {
	s.Set(sessionUserID, user.ID)
	if err := s.Save(); err != nil {
		log.Printf("Cannot save session for user %d: %v", user.ID, err)
	}
}

func (s *Session) LogoutUser() {
	s.Delete(sessionUserID)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
}

// User resolves the session to a user with grants preloaded. A zero ID
// means no valid session.
func (s *Session) User() (user models.User) {
	id, ok := s.Get(sessionUserID).(uint64)
	if !ok {
		return
	}
	user.ID = id
	if db.Instance.Preload("Grants").First(&user).Error != nil {
		user = models.User{}
	}
	return
}
