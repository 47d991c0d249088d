package telemetry_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Conversly/whatsapp-assistant/internal/config"
	"github.com/Conversly/whatsapp-assistant/internal/telemetry"
)

var _ = Describe("Setup", func() {
	It("stays disabled without an endpoint", func() {
		tel, err := telemetry.Setup(context.Background(), &config.Config{})

		Expect(err).NotTo(HaveOccurred())
		Expect(tel).To(BeNil())
		Expect(tel.Shutdown(context.Background())).To(Succeed())
	})

	It("installs a tracer provider when an endpoint is set", func() {
		previous := otel.GetTracerProvider()
		DeferCleanup(func() { otel.SetTracerProvider(previous) })

		tel, err := telemetry.Setup(context.Background(), &config.Config{
			ServiceName:    "whatsapp-assistant",
			ServiceVersion: "1.2.0",
			Environment:    "staging",
			OTel:           config.OTelConfig{Endpoint: "http://127.0.0.1:4318/"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(tel).NotTo(BeNil())
		Expect(otel.GetTracerProvider()).NotTo(BeIdenticalTo(previous))
		Expect(tel.Shutdown(context.Background())).To(Succeed())
	})
})

var _ = Describe("NewResource", func() {
	It("merges service attributes with the SDK defaults", func() {
		res, err := telemetry.NewResource(context.Background(), &config.Config{
			ServiceName:    "whatsapp-assistant",
			ServiceVersion: "1.2.0",
			Environment:    "staging",
		})
		Expect(err).NotTo(HaveOccurred())

		set := res.Set()
		name, ok := set.Value(attribute.Key("service.name"))
		Expect(ok).To(BeTrue())
		Expect(name.AsString()).To(Equal("whatsapp-assistant"))

		version, ok := set.Value(attribute.Key("service.version"))
		Expect(ok).To(BeTrue())
		Expect(version.AsString()).To(Equal("1.2.0"))

		env, ok := set.Value(attribute.Key("deployment.environment"))
		Expect(ok).To(BeTrue())
		Expect(env.AsString()).To(Equal("staging"))

		_, ok = set.Value(attribute.Key("telemetry.sdk.name"))
		Expect(ok).To(BeTrue())
	})

	It("picks up OTEL_RESOURCE_ATTRIBUTES", func() {
		Expect(os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "team=growth")).To(Succeed())
		DeferCleanup(os.Unsetenv, "OTEL_RESOURCE_ATTRIBUTES")

		res, err := telemetry.NewResource(context.Background(), &config.Config{ServiceName: "svc"})
		Expect(err).NotTo(HaveOccurred())

		team, ok := res.Set().Value(attribute.Key("team"))
		Expect(ok).To(BeTrue())
		Expect(team.AsString()).To(Equal("growth"))
	})
})

var _ = DescribeTable("ParseHeaders",
	func(in string, want map[string]string) {
		Expect(telemetry.ParseHeaders(in)).To(Equal(want))
	},
	Entry("empty", "", map[string]string{}),
	Entry("single pair", "authorization=Bearer abc", map[string]string{"authorization": "Bearer abc"}),
	Entry("several pairs with spaces", " a = 1 , b=2=3", map[string]string{"a": "1", "b": "2=3"}),
	Entry("pair without value is skipped", "broken,x=y", map[string]string{"x": "y"}),
)
