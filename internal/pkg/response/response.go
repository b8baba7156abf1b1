package response

import "github.com/gin-gonic/gin"

// Success padroniza respostas de sucesso da API.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error padroniza respostas de erro a partir de um error.
func Error(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// ErrorWithMessage padroniza respostas de erro com mensagem fixa.
func ErrorWithMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
