package repoargs

type RepositoryName string

const (
	UserRepoName    RepositoryName = "user"
	AddressRepoName RepositoryName = "address"
	VariantRepoName RepositoryName = "variant"
	CartRepoName    RepositoryName = "cart"
	OrderRepoName   RepositoryName = "order"
	ReturnRepoName  RepositoryName = "return"
)
