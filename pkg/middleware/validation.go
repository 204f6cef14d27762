package middleware

import (
	"errors"
	"mime"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	apperrors "github.com/YashPS24/CAQMS/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var customValidators = map[string]validator.Func{
	"order_no":    validateOrderNo,
	"color_code":  validateColorCode,
	"size_name":   validateSizeName,
	"safe_string": validateSafeString,
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func register(v *validator.Validate) {
	for tag, fn := range customValidators {
		_ = v.RegisterValidation(tag, fn)
	}
	v.RegisterTagNameFunc(jsonTagName)
}

// InitValidator initializes the validator with custom validators and installs
// the same rules on gin's binding engine.
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		register(validate)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			register(v)
		}
	})

	return validate
}

var (
	// Manufacturing order numbers, e.g. "GPAR12345" or "PTCOC-335".
	orderNoRegex    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-/]{1,39}$`)
	colorCodeRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,19}$`)
	sizeNameRegex   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/\-. ()]{0,19}$`)
	safeStringRegex = regexp.MustCompile(`^[^\x00<>]*$`)
)

func validateOrderNo(fl validator.FieldLevel) bool {
	return orderNoRegex.MatchString(fl.Field().String())
}

func validateColorCode(fl validator.FieldLevel) bool {
	return colorCodeRegex.MatchString(fl.Field().String())
}

func validateSizeName(fl validator.FieldLevel) bool {
	return sizeNameRegex.MatchString(fl.Field().String())
}

func validateSafeString(fl validator.FieldLevel) bool {
	return safeStringRegex.MatchString(fl.Field().String())
}

// ValidationErrorFormatter formats validation errors into a map keyed by JSON field path.
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[fieldPath(e)] = formatValidationError(e)
		}
	}

	return fields
}

// fieldPath drops the root struct name from the namespace: "Req.colors[0]" -> "colors[0]".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "dive":
		return "is invalid"
	case "order_no":
		return "must be a valid MO number"
	case "color_code":
		return "must be a valid color code"
	case "size_name":
		return "must be a valid size name"
	case "safe_string":
		return "contains invalid characters"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate binds request body and validates it
func BindAndValidate(c *gin.Context, obj interface{}) *apperrors.AppError {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return apperrors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return apperrors.NewAppError("PAYLOAD_TOO_LARGE", "request body is too large", http.StatusRequestEntityTooLarge)
		}
		return apperrors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// SanitizeString strips NUL bytes and surrounding whitespace.
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// InputSanitizer middleware sanitizes query parameters
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType rejects POST and PUT bodies that are neither JSON nor a multipart upload.
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
			switch {
			case mediaType == "application/json", mediaType == "multipart/form-data":
			case c.Request.ContentLength <= 0 && mediaType == "":
			default:
				AbortWithAppError(c, apperrors.NewAppError(
					"INVALID_CONTENT_TYPE",
					"Content-Type must be application/json or multipart/form-data",
					http.StatusUnsupportedMediaType,
				))
				return
			}
		}
		c.Next()
	}
}
