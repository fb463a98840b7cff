package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/akeren/waitlist-service/pkg/ratelimit"
)

// routePath joins a controller's mount point and a handler's relative path
// into the form gin registers: one leading slash, no trailing slash.
func routePath(controller *RESTController, relativePath string) string {
	path := controller.mountPoint
	if relativePath != "" {
		path += "/" + relativePath
	}

	path = "/" + path
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func (routerService *RouterService) keyForPathAndMethod(path, method string) string {
	return method + " " + path
}

func (routerService *RouterService) claimRoute(controller *RESTController, key string) {
	if owner, taken := routerService.handlerToControllerMap[key]; taken {
		panic(fmt.Sprintf("route %q is already registered by controller %q", key, owner.name))
	}
	routerService.handlerToControllerMap[key] = controller
}

// respondWith renders the ServiceResult a handler returns. A nil result is a
// handler bug and surfaces as a 500.
func respondWith(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("handler returned no result").ToJSON())
			return
		}
		c.JSON(result.StatusCode, result.ToJSON())
	}
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+mountPoint, "//", "/"),
		prepare:    prepare,
	}
}

// addHandler registers one route. A non-nil limiter replaces the service-wide
// limiter for that method and path only.
func (routerService *RouterService) addHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	method string,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	route := routePath(controller, path)
	key := routerService.keyForPathAndMethod(route, method)

	routerService.claimRoute(controller, key)
	if limiter != nil {
		if _, taken := routerService.rateLimitOverrides[key]; taken {
			panic(fmt.Sprintf("route %q already has a rate limiter", key))
		}
		routerService.rateLimitOverrides[key] = limiter
	}

	controller.handlerCount++
	routerService.engine.Handle(method, route, append(middlewares, respondWith(handler))...)
	routerService.logger.Debug("Handler registered", "controller", controller.name, "method", method, "path", route)
}

func (routerService *RouterService) AddPostHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(controller, limiter, http.MethodPost, path, handler, middlewares...)
}

func (routerService *RouterService) AddGetHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(controller, limiter, http.MethodGet, path, handler, middlewares...)
}
