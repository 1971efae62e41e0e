package controllers

import (
	"civicvoice-be/config"
	"civicvoice-be/escalation"
	"civicvoice-be/verify"

	"go.mongodb.org/mongo-driver/mongo"
)

var issueCollection *mongo.Collection = config.GetCollection("issues")
var userCollection *mongo.Collection = config.GetCollection("users")
var commentCollection *mongo.Collection = config.GetCollection("comments")
var authorityCollection *mongo.Collection = config.GetCollection("authorities")

var (
	appCfg     *config.Config
	engine     *escalation.Engine
	resolver   *escalation.Resolver
	dispatcher *escalation.Dispatcher
	verifier   *verify.Client
)

// Setup wires the escalation pipeline and verification gate from config.
// Must be called once before any route is served.
func Setup(cfg *config.Config) {
	appCfg = cfg
	engine = escalation.NewEngine(cfg.EscalationThreshold, cfg.VotePoints)
	resolver = escalation.NewResolver(escalation.NewMongoAuthorityFinder(authorityCollection))
	dispatcher = escalation.NewDispatcher(
		cfg.AuthorityWebhookURL,
		cfg.SendGridAPIKey,
		cfg.SendGridFromName,
		cfg.SendGridFromEmail,
	)
	verifier = verify.NewClient(cfg.VerifyURL, cfg.VerifyMinConfidence)
}
