package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/services"
)

type UserHandler struct {
	Users services.IUserService
	// MaxAvatarBytes caps the accepted avatar upload size.
	MaxAvatarBytes int64
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.Users.GetProfile(auth.MustUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserDTO(user))
}

type updateProfileReq struct {
	DisplayName *string `json:"display_name"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	user, err := h.Users.UpdateProfile(auth.MustUserID(c), req.DisplayName, nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserDTO(user))
}

// UploadAvatar accepts the raw image bytes as the request body. The content
// type is sniffed server-side on retrieval, so whatever the client declares
// here is ignored.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxAvatarBytes)
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "avatar too large"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "empty body"})
		return
	}

	user, err := h.Users.UpdateProfile(auth.MustUserID(c), nil, data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) GetAvatar(c *gin.Context) {
	data, contentType, err := h.Users.GetAvatar(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	if err := h.Users.ChangePassword(auth.MustUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Search(c *gin.Context) {
	recipients, err := h.Users.SearchUsers(c.Request.Context(), auth.MustUserID(c), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": lo.Map(recipients, func(r domain.Recipient, _ int) RecipientDTO { return toRecipientDTO(r) }),
	})
}
