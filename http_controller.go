package flashdeck

import (
	goerr "errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"

	"github.com/flashdeck/flashdeck/middleware/tokenware"
)

// RegisterAuthRoutes mounts the auth API and the sign-in/up pages
func RegisterAuthRoutes[T any](app router.Router[T], controller *AuthController) {
	registered := controller.Auther.ProtectedRoute(
		tokenware.PolicyRegistered,
		controller.Auther.MakeAPIRouteAuthErrorHandler(),
	)

	api := app.Group("/api/auth")
	api.Post("/login", controller.LoginAPI).SetName("api.auth.login")
	api.Post("/register", controller.RegisterAPI).SetName("api.auth.register")
	api.Post("/logout", controller.LogoutAPI).SetName("api.auth.logout")
	api.Get("/validate-token", controller.ValidateToken, registered).SetName("api.auth.validate")
	api.Get("/user-info", controller.UserInfo, registered).SetName("api.auth.user-info")

	app.Get(controller.Routes.Login, controller.LoginShow).SetName("sign-in.get")
	app.Post(controller.Routes.Login, controller.LoginPost).SetName("sign-in.post")
	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")
	app.Get(controller.Routes.Register, controller.RegistrationShow).SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).SetName("register.post")
}

type AuthControllerRoutes struct {
	Login    string
	Logout   string
	Register string
}

type AuthControllerViews struct {
	Login    string
	Register string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Registrar    *RegisterUserHandler
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	Auther       *RouteAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Logout:   "/logout",
			Register: "/register",
		},
		Views: &AuthControllerViews{
			Login:    "login",
			Register: "register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Registrar == nil {
		panic("Missing RegisterUserHandler in auth controller...")
	}

	return c
}

func WithAuthRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthRegistrar(h *RegisterUserHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Registrar = h
		return c
	}
}

func WithAuthRouteAuthenticator(a *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithAuthLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = l
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports if the client asked to stay signed in
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules. The identifier may be a username
// or an email, so only presence is checked.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginAPI handles POST /api/auth/login. Every credential failure
// produces the same message so the response never says which part of
// the credential pair was wrong.
func (a *AuthController) LoginAPI(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Username and password are required",
		})
	}

	token, identity, err := a.Auther.Token(ctx, payload)
	if err != nil {
		return a.loginError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":  true,
		"token":    token,
		"message":  "Login successful",
		"username": identity.Username(),
		"isAdmin":  identity.Role().IsAdmin(),
	})
}

func (a *AuthController) loginError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category == errors.CategoryRateLimit {
		return ctx.JSON(router.StatusTooManyRequests, map[string]any{
			"success": false,
			"message": "Too many login attempts, try again later",
		})
	}

	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"success": false,
		"message": "Invalid username or password",
	})
}

// RegisterAPI handles POST /api/auth/register
func (a *AuthController) RegisterAPI(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"message": err.Error(),
		})
	}

	if _, err := a.Registrar.Execute(ctx.Context(), payload.toMessage()); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"message": err.Error(),
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"message": "Registration successful",
	})
}

// ValidateToken handles GET /api/auth/validate-token. The gate already
// validated the token; reaching the handler means it is good.
func (a *AuthController) ValidateToken(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"isValid": true,
	})
}

// UserInfo handles GET /api/auth/user-info
func (a *AuthController) UserInfo(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Authentication required",
		})
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), claims.UserID())
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(router.StatusNotFound, map[string]any{
				"success": false,
				"message": "User not found",
			})
		}
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Failed to load user",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"id":                user.ID,
		"username":          user.Username,
		"email":             user.Email,
		"firstName":         user.FirstName,
		"lastName":          user.LastName,
		"bio":               user.Bio,
		"profilePictureUrl": user.ProfilePicture,
		"isAdmin":           user.IsAdmin,
		"createdAt":         user.CreatedAt,
	})
}

// LogoutAPI clears the auth cookie. The bearer token itself stays
// valid until expiry, there is no revocation list.
func (a *AuthController) LogoutAPI(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}

func (a *AuthController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if _, err := a.Auther.Login(ctx, payload); err != nil {
		errs["authentication"] = "Invalid username or password"
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	redirect := a.Auther.GetRedirect(ctx, "/")
	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *AuthController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterUserMessage{},
	})
}

// RegistrationCreatePayload is the form payload
type RegistrationCreatePayload struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (r RegistrationCreatePayload) toMessage() RegisterUserMessage {
	return RegisterUserMessage{
		Username:        r.Username,
		Email:           r.Email,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
	}
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		errs := map[string]string{"form": "Failed to parse form"}
		a.Logger.Error("register user parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		errs := FormatValidationErrorToMap(err)
		a.Logger.Error("register user validate payload: %v", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": errs,
		})
	}

	if _, err := a.Registrar.Execute(ctx.Context(), payload.toMessage()); err != nil {
		a.Logger.Error("register user error: %v", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error registering account",
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Successful user registration",
	}).Redirect("/login", fiber.StatusSeeOther)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return goerr.New("values must match")
		}
		return nil
	}
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
