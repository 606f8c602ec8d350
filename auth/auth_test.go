package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("MauvaisMDP", hash)
	req.NoError(err)
	req.False(match)
}

func TestComparePassword_MalformedHash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-a-hash")
	req.Error(err)
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-42", time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("user-42", claims.UserID)
}

func TestValidateToken_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-42", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}

func TestValidateToken_Garbage(t *testing.T) {
	req := require.New(t)

	_, err := ValidateToken("definitely.not.ajwt")
	req.Error(err)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"alice42", "Alice", "ComplexPass123!"}, false},
		{"Username too short", RegisterRequest{"al", "Alice", "ComplexPass123!"}, true},
		{"Username with spaces", RegisterRequest{"al ice", "Alice", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"alice42", "Alice", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"alice42", "Alice", "NoDigitPassword!"}, true},
		{"Missing special char", RegisterRequest{"alice42", "Alice", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"alice42", "Alice", "nouppercase123!!"}, true},
		{"Password too long (edge case)", RegisterRequest{"alice42", "Alice", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/protected", Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": MustUserID(c)})
	})

	// No header
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, r)
	req.Equal(http.StatusUnauthorized, w.Code)

	// Garbage token
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer nope")
	router.ServeHTTP(w, r)
	req.Equal(http.StatusUnauthorized, w.Code)

	// Valid token
	token, err := GenerateToken("user-42", time.Hour)
	req.NoError(err)
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, r)
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "user-42")
}

// BenchmarkHashPassword measures the CPU/RAM cost of one hash.
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
