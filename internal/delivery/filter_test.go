package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

func allowFilter(field model.PushFilterField, value string) *model.PushFilter {
	return &model.PushFilter{Field: field, Mode: model.FilterModeAllow, Value: value}
}

func denyFilter(field model.PushFilterField, value string) *model.PushFilter {
	return &model.PushFilter{Field: field, Mode: model.FilterModeDeny, Value: value}
}

// An allow-list admits a matching domain and drops everything else.
func TestAllowed_AllowListDomainFilter(t *testing.T) {
	filters := []*model.PushFilter{allowFilter(model.FilterFieldDomain, "example.com")}

	assert.False(t, allowed(filters, "a@other.com", "", ""))
	assert.True(t, allowed(filters, "b@example.com", "", ""))
}

func TestAllowed_DenyListBlocksOnMatch(t *testing.T) {
	filters := []*model.PushFilter{denyFilter(model.FilterFieldSubject, "newsletter")}

	assert.False(t, allowed(filters, "a@x.com", "Weekly Newsletter", ""))
	assert.True(t, allowed(filters, "a@x.com", "Invoice", ""))
}

func TestAllowed_NoFiltersAdmitsEverything(t *testing.T) {
	assert.True(t, allowed(nil, "a@x.com", "anything", ""))
}

func TestAllowed_AllowAndDenyCombine(t *testing.T) {
	filters := []*model.PushFilter{
		allowFilter(model.FilterFieldDomain, "example.com"),
		denyFilter(model.FilterFieldSender, "spam@example.com"),
	}

	assert.True(t, allowed(filters, "person@example.com", "", ""))
	assert.False(t, allowed(filters, "spam@example.com", "", ""))
	assert.False(t, allowed(filters, "person@other.com", "", ""))
}
