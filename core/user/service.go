package user

import (
	"context"
	"fmt"
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("user not found")
	ErrUserExists = errors.New("a user with this username or email already exists")

	errNotATeacher = "assigned teacher not found or is not a teacher"

	welcomeEmailTmpl = texttmpl.Must(texttmpl.New("welcome").Parse(`Hi {{.Name}},

An account has been created for you on {{.AppName}}.
Sign in at {{.BaseURL}} with your username "{{.Username}}" and the password you were given.
`))
	passwordResetEmailTmpl = texttmpl.Must(texttmpl.New("passwordReset").Parse(`Hi {{.Name}},

You requested a password reset on {{.AppName}}.
Follow this link to choose a new password:
{{.BaseURL}}/password-reset-confirm?uid={{.UID}}&token={{.Token}}

If you did not request this, you can safely ignore this email.
`))
	passwordResetDoneEmailTmpl = texttmpl.Must(texttmpl.New("passwordResetDone").Parse(`Hi {{.Name}},

Your {{.AppName}} password has been changed.
`))
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies an AND operation on available QueryFilter fields.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		Delete(ctx context.Context, ids ...string) error
		SetLastLogin(ctx context.Context, usr User) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		conf *core.Config
		repo Repository
		mail core.EmailService
		log  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, log core.Logger) Service {
	// the password-reset token generator signs with the app secret
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &service{
		conf: conf,
		repo: repo,
		mail: mailSvc,
		log:  log,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrUserExists {
			return core.NewValidationError(
				err,
				core.FieldError{Field: "username", Error: err.Error()},
				core.FieldError{Field: "email", Error: err.Error()},
			)
		}
		return err
	}
	return nil
}

// resolveAssignedTeacher checks that the referenced user exists and teaches,
// and returns their display name for denormalization.
func (svc *service) resolveAssignedTeacher(ctx context.Context, teacherID string) (string, error) {
	tchr, err := svc.repo.GetUser(ctx, GetFilter{ID: teacherID})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return "", core.NewValidationError(nil, core.FieldError{Field: "assigned_teacher_id", Error: errNotATeacher})
		}
		return "", errors.Wrap(err, "getting assigned teacher")
	}
	if !tchr.IsTeacher() {
		return "", core.NewValidationError(nil, core.FieldError{Field: "assigned_teacher_id", Error: errNotATeacher})
	}
	return tchr.Name, nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:              nu.Name,
		Username:          nu.Username,
		Email:             nu.Email,
		Roles:             nu.Roles,
		Batches:           nu.Batches,
		AssignedTeacherID: nu.AssignedTeacherID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	usr.SetActive(true)

	if usr.AssignedTeacherID != "" {
		name, err := svc.resolveAssignedTeacher(ctx, usr.AssignedTeacherID)
		if err != nil {
			return User{}, err
		}
		usr.AssignedTeacherName = name
	}

	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: []string{uname, uname}})
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:                id,
		Name:              uu.Name,
		Username:          uu.Username,
		Email:             uu.Email,
		Roles:             uu.Roles,
		Batches:           uu.Batches,
		AssignedTeacherID: uu.AssignedTeacherID,
		UpdatedAt:         time.Now().UTC(),
	}

	if usr.AssignedTeacherID != "" {
		name, err := svc.resolveAssignedTeacher(ctx, usr.AssignedTeacherID)
		if err != nil {
			return User{}, err
		}
		usr.AssignedTeacherName = name
	}

	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, User{ID: usr.ID, LastLogin: usr.LastLogin}, nil)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("Password reset on %s", svc.conf.AppName),
	}
	err = msg.RenderTextTemplate(passwordResetEmailTmpl, struct {
		Name, AppName, BaseURL, UID, Token string
	}{usr.Name, svc.conf.AppName, svc.conf.FrontendBaseURL, EncodeUID(usr), makeToken(usr)})
	if err != nil {
		return err
	}

	svc.mail.SendMessages(msg)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	uid, err := decodeUID(rp.UID)
	if err != nil {
		return errInvalidToken
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: uid})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return errInvalidToken
		}
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return err
	}

	if err := usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr, nil); err != nil {
		return errors.Wrap(err, "updating password")
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("Password changed on %s", svc.conf.AppName),
	}
	if err := msg.RenderTextTemplate(passwordResetDoneEmailTmpl, struct {
		Name, AppName string
	}{usr.Name, svc.conf.AppName}); err == nil {
		svc.mail.SendMessages(msg)
	}
	return nil
}

func (svc *service) sendWelcomeEmail(usr User) {
	if usr.Email == "" {
		return
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("Welcome to %s", svc.conf.AppName),
	}
	err := msg.RenderTextTemplate(welcomeEmailTmpl, struct {
		Name, AppName, BaseURL, Username string
	}{usr.Name, svc.conf.AppName, svc.conf.FrontendBaseURL, usr.Username})
	if err != nil {
		svc.log.Error("rendering welcome email", err)
		return
	}
	svc.mail.SendMessages(msg)
}
