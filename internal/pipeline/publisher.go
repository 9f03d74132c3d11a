package pipeline

import (
	"context"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/deploy"
	"git.home.luguber.info/inful/blogbuilder/internal/events"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/observability"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

// PublishResult is a build plus what its deploy did.
type PublishResult struct {
	*Result
	Deploy deploy.Result
}

// Publisher builds the production site and deploys it.
type Publisher struct {
	builder  *Builder
	deployer deploy.Deployer
}

// NewPublisher wraps b; the deployer comes from deploy.target unless set
// with WithDeployer.
func NewPublisher(b *Builder) *Publisher {
	return &Publisher{builder: b}
}

// WithDeployer fixes the deployer.
func (p *Publisher) WithDeployer(d deploy.Deployer) *Publisher {
	p.deployer = d
	return p
}

// Publish runs a production build and deploys the promoted output. A
// failed build returns before the deployer is touched.
func (p *Publisher) Publish(ctx context.Context, req Request) (*PublishResult, error) {
	req.Mode = selection.ModeProduction
	if p.builder.recorder == nil {
		// Build and deploy metrics must land in the same textfile.
		p.builder.WithRecorder(metrics.NewPrometheusRecorder(nil))
	}
	res, err := p.builder.Build(ctx, req)
	if err != nil {
		if res == nil {
			return nil, err
		}
		return &PublishResult{Result: res}, err
	}
	out := &PublishResult{Result: res}
	cfg := res.Config
	ctx = observability.WithStage(observability.WithBuildID(ctx, res.BuildID), "deploy")

	d := p.deployer
	if d == nil {
		if d, err = deploy.New(cfg); err != nil {
			return out, err
		}
	}

	rec, textfile := p.builder.recorderFor(cfg)
	pub, closePub := p.builder.publisherFor(ctx, cfg)
	defer closePub()

	observability.InfoContext(ctx, "Deploying", logfields.Target(d.Name()))
	out.Deploy, err = d.Deploy(ctx, res.OutputDir(), deploy.Meta{BuildID: res.BuildID, Commit: res.Commit})
	rec.IncDeployOutcome(d.Name(), err == nil)
	if textfile != nil {
		textfile()
	}

	res.row.Finished = time.Now()
	if err != nil {
		res.row.Error = err.Error()
		p.builder.recordHistory(ctx, cfg, res.row)
		ev := res.event(events.DeployFailed, cfg)
		ev.Target = d.Name()
		ev.Error = err.Error()
		events.Emit(ctx, pub, ev)
		observability.ErrorContext(ctx, "Deploy failed", logfields.Error(err))
		return out, err
	}

	res.row.Deployed = true
	p.builder.recordHistory(ctx, cfg, res.row)
	ev := res.event(events.DeploySucceeded, cfg)
	ev.Target = d.Name()
	events.Emit(ctx, pub, ev)
	observability.InfoContext(ctx, "Deploy finished",
		logfields.Target(out.Deploy.Target),
		logfields.Commit(out.Deploy.Revision))
	return out, nil
}
