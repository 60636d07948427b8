package http

import (
	"errors"
	"net/url"
	"strings"
	"time"

	errorc "osskit/pkg/core/err"
	"osskit/pkg/core/logger"
	"osskit/pkg/core/result"
	"osskit/pkg/core/util"
	"osskit/pkg/oss"
	"osskit/system/storage/api/dto"
	"osskit/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"
)

// StorageAPIController 直传授权、上传回调和对象查询接口
type StorageAPIController struct {
	service  *oss.Service
	verifier *oss.Verifier
	metrics  *oss.Metrics
	err      *errorc.ErrorBuilder
	log      *logger.Log
}

func NewStorageAPIController(service *oss.Service, verifier *oss.Verifier, metrics *oss.Metrics) *StorageAPIController {
	return &StorageAPIController{
		service:  service,
		verifier: verifier,
		metrics:  metrics,
		err:      errorc.NewErrorBuilder("StorageAPIController"),
		log:      logger.GetLogger().WithEntryName("StorageAPIController"),
	}
}

// RegisterRoutes 注册路由
func (c *StorageAPIController) RegisterRoutes(api fiber.Router) {
	api.Post("/post-auth", c.PostAuth)
	api.Post("/callback", c.Callback)
	api.Get("/objects", c.Objects)
	api.Get("/image-url", c.ImageURL)
}

// PostAuth 客户端直传授权
func (c *StorageAPIController) PostAuth(ctx *fiber.Ctx) error {
	var req dto.PostAuthReq
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}

	grant, err := c.service.PostAuth(util.Context(ctx), req.ToGrant())
	if err != nil {
		return err
	}
	return result.OK(ctx, grant)
}

// Callback OSS上传回调，签名校验失败时返回400，OSS据此判定回调失败
func (c *StorageAPIController) Callback(ctx *fiber.Ctx) error {
	traceCtx := util.Context(ctx)
	log := c.log.WithTrace(traceCtx)

	ok := c.verifier.VerifyRequest(traceCtx, ctx)
	c.metrics.ObserveCallback(ok)
	if !ok {
		log.WithField("ip", ctx.IP()).Warn("上传回调签名校验失败")
		return ctx.Status(fiber.StatusBadRequest).JSON(dto.CallbackResp{Status: "verify not ok"})
	}

	data, err := parseCallbackBody(ctx.Get(fiber.HeaderContentType), ctx.Body())
	if err != nil {
		log.WithErr(err).Warn("上传回调内容解析失败")
		return ctx.Status(fiber.StatusBadRequest).JSON(dto.CallbackResp{Status: "bad body"})
	}

	log.WithField("object", data["object"]).Info("收到上传回调")
	return ctx.JSON(dto.CallbackResp{Status: "OK", Data: data})
}

// parseCallbackBody 回调内容为JSON或表单，取决于callbackBodyType
func parseCallbackBody(contentType string, body []byte) (map[string]interface{}, error) {
	if strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		if !gjson.ValidBytes(body) {
			return nil, errors.New("回调内容不是合法的JSON")
		}
		data, ok := gjson.ParseBytes(body).Value().(map[string]interface{})
		if !ok {
			return nil, errors.New("回调内容不是JSON对象")
		}
		return data, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	data := make(map[string]interface{}, len(values))
	for k := range values {
		data[k] = values.Get(k)
	}
	return data, nil
}

// Objects 列举目录
func (c *StorageAPIController) Objects(ctx *fiber.Ctx) error {
	var req dto.ObjectsReq
	if err := ctx.QueryParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}

	listing, err := c.service.ListDirObjects(util.Context(ctx), req.Prefix, req.Recursive)
	return result.Once(ctx, listing, err)
}

// ImageURL 图片访问地址，sign为true时返回签名地址
func (c *StorageAPIController) ImageURL(ctx *fiber.Ctx) error {
	var req dto.ImageURLReq
	if err := ctx.QueryParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}

	process := req.Process()
	if !req.Sign {
		return result.OK(ctx, dto.ImageURLResp{URL: c.service.ImageURL(req.Object, process), Process: process})
	}

	signed, err := c.service.SignURL(util.Context(ctx), req.Object, process, time.Duration(req.Expire)*time.Second)
	if err != nil {
		return err
	}
	return result.OK(ctx, dto.ImageURLResp{URL: signed, Process: process})
}
