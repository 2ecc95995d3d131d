package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-api/internal/translator"
)

const langCtxKey = "lang"

func (h *handlerImpl) HandleLanguage(c *gin.Context) {
	c.Set(langCtxKey, h.translator.Match(c.GetHeader("Accept-Language")))
	c.Next()
}

func getLang(c *gin.Context) string {
	if lang, ok := getStringFromContext(c, langCtxKey); ok {
		return lang
	}
	return translator.LanguageEn
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}
