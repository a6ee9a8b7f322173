package access

import "procurement/models"

type Resource string

const (
	ResourceProject     Resource = "project"
	ResourceRequirement Resource = "requirement"
	ResourceRfq         Resource = "rfq"
	ResourceQuote       Resource = "quote"
	ResourceVendor      Resource = "vendor"
	ResourceUser        Resource = "user"
	ResourceDocument    Resource = "document"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// ActionList список без родителя: свои проекты, все RFQ, все котировки
	ActionList Action = "list"

	// списки в рамках родителя: проекта, RFQ, пользователя
	ActionListByParent        Action = "list_by_parent"
	ActionListByVendor        Action = "list_by_vendor"
	ActionListClosed          Action = "list_closed"
	ActionListClosedByProject Action = "list_closed_by_project"
)

// Resources и Actions перечисляют всё пространство правил
var (
	Resources = []Resource{
		ResourceProject, ResourceRequirement, ResourceRfq, ResourceQuote,
		ResourceVendor, ResourceUser, ResourceDocument,
	}
	Actions = []Action{
		ActionCreate, ActionRead, ActionUpdate, ActionDelete,
		ActionList, ActionListByParent, ActionListByVendor, ActionListClosed, ActionListClosedByProject,
	}
)

type Predicate func(c Caller, s Subject) bool

type Rule struct {
	Allow Predicate
	// Reason текст отказа по умолчанию
	Reason string
	// ReasonFor текст отказа для конкретной роли вызывающего
	ReasonFor map[models.Role]string
}

func (r Rule) reason(role models.Role) string {
	if msg, ok := r.ReasonFor[role]; ok {
		return msg
	}
	return r.Reason
}

type key struct {
	resource Resource
	action   Action
}

const (
	msgDenied             = "Access denied."
	msgNotProjectOwner    = "Access denied. You do not own this project."
	msgNotVendorAccount   = "Access denied. You do not own this vendor account."
	msgNotQuoteOwner      = "Access denied. You do not own this quote."
	msgInsufficientRights = "Access denied. Insufficient permissions."
)

// предикаты

func anyone(Caller, Subject) bool { return true }

func isAdmin(c Caller, _ Subject) bool { return c.Is(models.RoleAdmin) }

func isVendor(c Caller, _ Subject) bool { return c.Is(models.RoleVendor) }

func ownsProject(c Caller, s Subject) bool {
	return s.Project != nil && s.Project.OwnerID == c.ID
}

func isTargetUser(c Caller, s Subject) bool {
	return s.TargetUserID != 0 && s.TargetUserID == c.ID
}

func ownsRfqProject(c Caller, s Subject) bool {
	return c.Is(models.RoleProjectOwner) && ownsProject(c, s)
}

func vendorOwnsQuote(c Caller, s Subject) bool {
	return c.Is(models.RoleVendor) && s.Quote != nil && s.Quote.VendorID == c.ID
}

func vendorHasQuoted(c Caller, s Subject) bool {
	return c.Is(models.RoleVendor) && s.HasQuoted
}

func vendorSeesOpenRfq(c Caller, s Subject) bool {
	return c.Is(models.RoleVendor) && s.Rfq != nil && s.Rfq.Status == models.RfqStatusOpen
}

func anyOf(ps ...Predicate) Predicate {
	return func(c Caller, s Subject) bool {
		for _, p := range ps {
			if p(c, s) {
				return true
			}
		}
		return false
	}
}

var (
	ownerRule = Rule{Allow: ownsProject, Reason: msgNotProjectOwner}
	adminRule = Rule{Allow: isAdmin, Reason: msgInsufficientRights}
	openRule  = Rule{Allow: anyone, Reason: msgDenied}

	quoteMutation = func(verb string) Rule {
		return Rule{
			Allow:  anyOf(isAdmin, vendorOwnsQuote, ownsRfqProject),
			Reason: "Access denied. You do not have permission to " + verb + " this quote.",
			ReasonFor: map[models.Role]string{
				models.RoleVendor:       msgNotQuoteOwner,
				models.RoleProjectOwner: msgNotProjectOwner,
			},
		}
	}
)

// rules единственный источник решений о доступе. Пары, которых здесь нет, запрещены.
var rules = map[key]Rule{
	// проекты: список фильтруется по владельцу в хранилище, для админа исключения нет
	{ResourceProject, ActionCreate}: openRule,
	{ResourceProject, ActionList}:   openRule,
	{ResourceProject, ActionRead}:   ownerRule,
	{ResourceProject, ActionUpdate}: ownerRule,
	{ResourceProject, ActionDelete}: ownerRule,

	// требования наследуют владение проекта
	{ResourceRequirement, ActionCreate}:       ownerRule,
	{ResourceRequirement, ActionListByParent}: ownerRule,
	{ResourceRequirement, ActionUpdate}:       ownerRule,
	{ResourceRequirement, ActionDelete}:       ownerRule,

	{ResourceRfq, ActionCreate}: {Allow: ownsRfqProject, Reason: msgNotProjectOwner},
	{ResourceRfq, ActionUpdate}: {Allow: ownsRfqProject, Reason: msgNotProjectOwner},
	{ResourceRfq, ActionDelete}: {Allow: ownsRfqProject, Reason: msgNotProjectOwner},
	{ResourceRfq, ActionRead}: {
		Allow:  anyOf(vendorSeesOpenRfq, vendorHasQuoted, isAdmin, ownsRfqProject),
		Reason: "Access denied. You do not have permission to view this RFQ.",
	},
	{ResourceRfq, ActionList}: {
		Allow:  anyOf(isAdmin, isVendor),
		Reason: "Access denied. Only vendors and admins can access this endpoint.",
	},
	{ResourceRfq, ActionListClosed}:          {Allow: isVendor, Reason: "Access denied. Vendor access required."},
	{ResourceRfq, ActionListByParent}:        ownerRule,
	{ResourceRfq, ActionListClosedByProject}: ownerRule,

	// владелец заносит котировку только по RFQ своего проекта
	{ResourceQuote, ActionCreate}: {
		Allow: anyOf(
			isAdmin,
			ownsRfqProject,
			func(c Caller, s Subject) bool { return c.Is(models.RoleVendor) && isTargetUser(c, s) },
		),
		Reason:    msgNotVendorAccount,
		ReasonFor: map[models.Role]string{models.RoleProjectOwner: msgNotProjectOwner},
	},
	{ResourceQuote, ActionRead}: {
		Allow:  anyOf(isAdmin, vendorOwnsQuote, ownsRfqProject),
		Reason: "Access denied. You do not have permission to view this quote.",
	},
	// вендор, подавший котировку, видит все котировки этого RFQ
	{ResourceQuote, ActionListByParent}: {
		Allow:  anyOf(isAdmin, vendorHasQuoted, ownsRfqProject),
		Reason: "Access denied. Only project owners, vendors who submitted quotes, and admins can view quotes.",
		ReasonFor: map[models.Role]string{
			models.RoleVendor:       "Access denied. You have not submitted a quote for this RFQ.",
			models.RoleProjectOwner: msgNotProjectOwner,
		},
	},
	{ResourceQuote, ActionListByVendor}: {Allow: anyOf(isAdmin, isTargetUser), Reason: msgNotVendorAccount},
	{ResourceQuote, ActionList}:         {Allow: isAdmin, Reason: "Access denied. Admin access required."},
	{ResourceQuote, ActionUpdate}:       quoteMutation("update"),
	{ResourceQuote, ActionDelete}:       quoteMutation("delete"),

	{ResourceVendor, ActionCreate}: {
		Allow:  anyOf(isAdmin, isTargetUser),
		Reason: "Access denied. You can only create a vendor profile for yourself.",
	},
	{ResourceVendor, ActionRead}:         openRule,
	{ResourceVendor, ActionListByParent}: openRule,
	{ResourceVendor, ActionList}:         adminRule,
	{ResourceVendor, ActionUpdate}:       adminRule,
	{ResourceVendor, ActionDelete}:       adminRule,

	{ResourceUser, ActionRead}: {
		Allow:  anyOf(isAdmin, isTargetUser),
		Reason: "Access denied. You can only view your own profile.",
	},
	{ResourceUser, ActionUpdate}: {
		Allow:  anyOf(isAdmin, isTargetUser),
		Reason: "Access denied. You can only update your own profile.",
	},

	// документы доступны любому аутентифицированному пользователю
	{ResourceDocument, ActionCreate}:       openRule,
	{ResourceDocument, ActionRead}:         openRule,
	{ResourceDocument, ActionListByParent}: openRule,
	{ResourceDocument, ActionDelete}:       openRule,
}

// Authorize возвращает nil или *DeniedError. Неизвестная пара ресурс/действие запрещена.
func Authorize(c Caller, res Resource, act Action, s Subject) error {
	rule, ok := rules[key{res, act}]
	if !ok || rule.Allow == nil {
		return &DeniedError{Reason: msgDenied}
	}
	if !rule.Allow(c, s) {
		return &DeniedError{Reason: rule.reason(c.Role)}
	}
	return nil
}

// Defined сообщает, есть ли правило для пары
func Defined(res Resource, act Action) bool {
	_, ok := rules[key{res, act}]
	return ok
}
