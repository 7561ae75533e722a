package echoapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/faculty"
)

const tokenContextKey = "authToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	IsFaculty    bool   `json:"is_faculty,omitempty"` // -> FACULTY PORTAL
	IsAdmin      bool   `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func facultyClaims(conf *core.Config, member faculty.Faculty, origIat ...int64) *Claims {
	claims := baseClaims(conf, member.FacultyID, origIat...)
	claims.Name = member.Name
	claims.IsFaculty = true
	return claims
}

func adminClaims(conf *core.Config, username string, origIat ...int64) *Claims {
	claims := baseClaims(conf, username, origIat...)
	claims.Name = username
	claims.IsAdmin = true
	return claims
}

func baseClaims(conf *core.Config, subject string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  "SGU",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func authenticateFaculty(ctx echo.Context, conf *core.Config, svc *faculty.Service, facultyID, pin string) (*Claims, error) {
	member, err := svc.Authenticate(ctx.Request().Context(), facultyID, pin)
	if err != nil {
		if errors.Cause(err) == faculty.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "authenticating faculty")
	}
	return facultyClaims(conf, member), nil
}

func authenticateAdmin(conf *core.Config, username, password string) (*Claims, error) {
	if conf.Admin.Username == "" || conf.Admin.Password == "" {
		// admin portal disabled
		return nil, errAuthenticationFailed
	}
	unameOK := subtle.ConstantTimeCompare([]byte(username), []byte(conf.Admin.Username)) == 1
	pwdOK := subtle.ConstantTimeCompare([]byte(password), []byte(conf.Admin.Password)) == 1
	if !unameOK || !pwdOK {
		return nil, errAuthenticationFailed
	}
	return adminClaims(conf, username), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func refreshToken(ctx echo.Context, conf *core.Config, svc *faculty.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	var newClaims *Claims
	if claims.IsAdmin {
		newClaims = adminClaims(conf, claims.Subject, claims.OrigIssuedAt)
	} else {
		// the member must still exist
		member, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
		if err != nil {
			if errors.Cause(err) == faculty.ErrNotFound {
				return "", errUnauthorized
			}
			return "", errors.Wrap(err, "finding faculty by ID")
		}
		newClaims = facultyClaims(conf, member, claims.OrigIssuedAt)
	}

	token, err := GenerateToken(conf, newClaims)
	return token, errors.Wrap(err, "generating token")
}

type (
	facultyLoginRequest struct {
		FacultyID string `json:"faculty_id" validate:"required"`
		PIN       string `json:"pin" validate:"required,pin"`
	}

	adminLoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	loginResponse struct {
		Token string `json:"token"`
	}
)

type authApi struct {
	deps ServerDeps
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{deps: deps}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/admin-login", api.adminLogin)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

func (api *authApi) login(ctx echo.Context) error {
	var data facultyLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to facultyLoginRequest")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	claims, err := authenticateFaculty(ctx, api.deps.Conf, api.deps.FacultySvc, data.FacultyID, data.PIN)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, loginResponse{Token: token})
}

func (api *authApi) adminLogin(ctx echo.Context) error {
	var data adminLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to adminLoginRequest")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	claims, err := authenticateAdmin(api.deps.Conf, data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, loginResponse{Token: token})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.deps.Conf, api.deps.FacultySvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loginResponse{Token: token})
}
