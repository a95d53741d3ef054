package enums

type UsageAction string

const (
	UsageActionLike      UsageAction = "like"
	UsageActionSuperLike UsageAction = "superlike"
	UsageActionAdWatch   UsageAction = "ad_watch"
)
