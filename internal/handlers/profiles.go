package handlers

import (
	"net/http"
	"strings"

	"github.com/MosinFAM/bizdirectory/internal/directory"
	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/gin-gonic/gin"
)

const homePage = "/index.html"

func profileInput(c *gin.Context) directory.ProfileInput {
	return directory.ProfileInput{
		IsBusiness: c.PostForm("isBusiness"),
		Name:       c.PostForm("name"),
		Location:   c.PostForm("location"),
		Bio:        c.PostForm("bio"),
		Story:      c.PostForm("story"),
		About:      c.PostForm("about"),
		Calendar:   c.PostForm("calendarEmail"),
		Support:    c.PostForm("support"),
		Lat:        c.PostForm("lat"),
		Lng:        c.PostForm("lng"),
	}
}

// GetProfile handles GET /profile/:id.
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Profiles.GetUserProfile(c.Request.Context(), c.Param("id"), h.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SaveProfile handles POST /profile.
func (h *Handler) SaveProfile(c *gin.Context) {
	caller := h.caller(c)
	if err := h.Profiles.SaveUserProfile(c.Request.Context(), caller, profileInput(c)); err != nil {
		respondError(c, err)
		return
	}
	redirectToPage(c, "/profile.html", caller)
}

func (h *Handler) ListProfiles(c *gin.Context) {
	profiles, err := h.Profiles.ListProfiles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// GetBusiness handles GET /business/:id.
func (h *Handler) GetBusiness(c *gin.Context) {
	b, err := h.Profiles.GetBusiness(c.Request.Context(), c.Param("id"), h.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// SaveBusiness handles POST /business.
func (h *Handler) SaveBusiness(c *gin.Context) {
	caller := h.caller(c)
	if err := h.Profiles.SaveBusiness(c.Request.Context(), caller, profileInput(c)); err != nil {
		respondError(c, err)
		return
	}
	redirectToPage(c, "/business.html", caller)
}

func (h *Handler) ListBusinesses(c *gin.Context) {
	businesses, err := h.Profiles.ListBusinesses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, businesses)
}

// Search handles GET /search?searchItem=.
func (h *Handler) Search(c *gin.Context) {
	businesses, err := h.Profiles.SearchBusinesses(c.Request.Context(), c.Query("searchItem"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, businesses)
}

// Map handles GET /map/swLat/swLng/neLat/neLng.
func (h *Handler) Map(c *gin.Context) {
	var segments []string
	for _, s := range strings.Split(c.Param("bounds"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	bounds, err := directory.ParseBounds(segments)
	if err != nil {
		respondError(c, err)
		return
	}
	businesses, err := h.Profiles.BusinessesInBounds(c.Request.Context(), bounds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, businesses)
}

// Login handles GET /login: the session state shown by the front end.
func (h *Handler) Login(c *gin.Context) {
	caller := h.caller(c)
	if caller == "" {
		c.JSON(http.StatusOK, models.LoginState{URL: h.Sessions.LoginURL()})
		return
	}
	isBusiness, err := h.Profiles.IsBusiness(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LoginState{
		IsLoggedIn: true,
		URL:        h.Sessions.LogoutURL(),
		UserID:     caller,
		IsBusiness: models.YesNo(isBusiness),
	})
}

// CheckNewUser handles GET /check_new_user, where the sign-in page returns with
// a token. First-time users get a default profile.
func (h *Handler) CheckNewUser(c *gin.Context) {
	if token := c.Query("token"); token != "" {
		if _, err := h.Sessions.StartSession(c, token); err != nil {
			respondError(c, &directory.Error{Kind: directory.KindAuthorization, Msg: "Invalid or expired token"})
			return
		}
	}
	caller := h.caller(c)
	if caller == "" {
		c.Redirect(http.StatusFound, h.Sessions.LoginURL())
		return
	}
	if err := h.Profiles.EnsureProfile(c.Request.Context(), caller); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, homePage)
}

// Logout handles GET /logout.
func (h *Handler) Logout(c *gin.Context) {
	h.Sessions.EndSession(c)
	c.Redirect(http.StatusFound, homePage)
}
