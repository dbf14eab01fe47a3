package biz

import (
	"math"
	"sort"

	"github.com/kart-io/newsloom/internal/model"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

// ClustererConfig 密度聚类配置。
type ClustererConfig struct {
	// MinClusterSize 成簇的最小成员数。
	MinClusterSize int
	// MinSamples 核心距离的近邻数（含自身）。
	MinSamples int
	// MinArticles 执行聚类所需的最少文章数。
	MinArticles int
}

// Clusterer 对文章嵌入执行 HDBSCAN 密度聚类。
// 噪声点被丢弃；每个簇计算质心，成员按到质心的欧氏距离
// 升序排列，距离相同时按文章 id 升序。
type Clusterer struct {
	config *ClustererConfig
}

// ClusterResult 一个簇的聚类输出。
type ClusterResult struct {
	// Members 成员文章 id，按到质心距离升序。
	Members []string
	// Center 簇质心（成员向量的算术平均）。
	Center []float32
}

// NewClusterer 创建聚类器实例。
func NewClusterer(config *ClustererConfig) *Clusterer {
	if config == nil {
		config = &ClustererConfig{
			MinClusterSize: 3,
			MinSamples:     1,
			MinArticles:    10,
		}
	}
	if config.MinClusterSize < 2 {
		config.MinClusterSize = 2
	}
	if config.MinSamples < 1 {
		config.MinSamples = 1
	}
	return &Clusterer{config: config}
}

// Cluster 对嵌入集执行聚类，返回发现顺序的簇列表和噪声点数量。
// 输入不足 MinArticles 时返回 ErrInsufficientArticles；
// 维度不一致时返回 ErrEmbeddingDimMismatch。
func (c *Clusterer) Cluster(embeddings []model.ArticleEmbedding) ([]*ClusterResult, int, error) {
	n := len(embeddings)
	if n < c.config.MinArticles {
		return nil, 0, errs.ErrInsufficientArticles.WithMessagef(
			"%d articles, need at least %d", n, c.config.MinArticles)
	}

	dim := len(embeddings[0].Embedding)
	for _, e := range embeddings {
		if len(e.Embedding) != dim {
			return nil, 0, errs.ErrEmbeddingDimMismatch.WithMessagef(
				"embedding %s has dimension %d, expected %d", e.ID, len(e.Embedding), dim)
		}
	}

	labels := c.run(embeddings)

	// 按标签收集成员，簇顺序取决于成员在输入中的首次出现
	order := make([]int, 0)
	groups := make(map[int][]int)
	noise := 0
	for i, label := range labels {
		if label < 0 {
			noise++
			continue
		}
		if _, seen := groups[label]; !seen {
			order = append(order, label)
		}
		groups[label] = append(groups[label], i)
	}

	results := make([]*ClusterResult, 0, len(order))
	for _, label := range order {
		results = append(results, buildCluster(embeddings, groups[label], dim))
	}
	return results, noise, nil
}

// buildCluster 计算质心并排序成员。
func buildCluster(embeddings []model.ArticleEmbedding, memberIdx []int, dim int) *ClusterResult {
	center := make([]float32, dim)
	for _, i := range memberIdx {
		for d, v := range embeddings[i].Embedding {
			center[d] += v
		}
	}
	for d := range center {
		center[d] /= float32(len(memberIdx))
	}

	type memberDist struct {
		id   string
		dist float64
	}
	members := make([]memberDist, len(memberIdx))
	for j, i := range memberIdx {
		members[j] = memberDist{
			id:   embeddings[i].ID,
			dist: euclidean(embeddings[i].Embedding, center),
		}
	}

	// 距离升序，距离相同时按 id 升序保证跨运行可复现
	sort.Slice(members, func(a, b int) bool {
		if members[a].dist != members[b].dist {
			return members[a].dist < members[b].dist
		}
		return members[a].id < members[b].id
	})

	ids := make([]string, len(members))
	for j, m := range members {
		ids[j] = m.id
	}
	return &ClusterResult{Members: ids, Center: center}
}

// run 执行 HDBSCAN 主流程，返回每个点的簇标签（-1 为噪声）。
func (c *Clusterer) run(embeddings []model.ArticleEmbedding) []int {
	n := len(embeddings)

	// 距离矩阵
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := euclidean(embeddings[i].Embedding, embeddings[j].Embedding)
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	// 核心距离：第 MinSamples 近邻的距离（自身计为第 1 个）
	core := make([]float64, n)
	k := c.config.MinSamples
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		copy(row, dist[i])
		sort.Float64s(row)
		if k-1 < n {
			core[i] = row[k-1]
		} else {
			core[i] = row[n-1]
		}
	}

	// 互达距离上的最小生成树（Prim）
	edges := minimumSpanningTree(dist, core)

	// 单链接层次树
	tree := buildLinkageTree(edges, n)

	// 压缩树 + EOM 稳定性选择
	condensed := condenseTree(tree, n, c.config.MinClusterSize)
	selected := selectClusters(condensed)

	return assignLabels(condensed, selected, n)
}

// euclidean 计算两个向量的欧氏距离。
func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// mstEdge 最小生成树中的一条边。
type mstEdge struct {
	a, b   int
	weight float64
}

// minimumSpanningTree 在互达距离图上构建 MST。
// mreach(a,b) = max(core[a], core[b], dist[a][b])。
func minimumSpanningTree(dist [][]float64, core []float64) []mstEdge {
	n := len(dist)
	inTree := make([]bool, n)
	minWeight := make([]float64, n)
	minFrom := make([]int, n)
	for i := range minWeight {
		minWeight[i] = math.Inf(1)
		minFrom[i] = -1
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[0] = true

	for len(edges) < n-1 {
		// 用刚加入的点松弛剩余点
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			w := dist[current][j]
			if core[current] > w {
				w = core[current]
			}
			if core[j] > w {
				w = core[j]
			}
			if w < minWeight[j] {
				minWeight[j] = w
				minFrom[j] = current
			}
		}

		// 选择权重最小的树外点
		next := -1
		best := math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && minWeight[j] < best {
				best = minWeight[j]
				next = j
			}
		}

		edges = append(edges, mstEdge{a: minFrom[next], b: next, weight: best})
		inTree[next] = true
		current = next
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })
	return edges
}

// linkageNode 单链接树的内部节点。叶子节点编号 [0,n)，内部节点从 n 起。
type linkageNode struct {
	left, right int
	distance    float64
	size        int
}

// buildLinkageTree 按边权升序合并连通分量，生成单链接层次树。
func buildLinkageTree(edges []mstEdge, n int) []linkageNode {
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	var find func(x int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	size := make([]int, 2*n-1)
	for i := 0; i < n; i++ {
		size[i] = 1
	}

	nodes := make([]linkageNode, 0, n-1)
	nextID := n
	for _, e := range edges {
		ra, rb := find(e.a), find(e.b)
		nodes = append(nodes, linkageNode{
			left:     ra,
			right:    rb,
			distance: e.weight,
			size:     size[ra] + size[rb],
		})
		size[nextID] = size[ra] + size[rb]
		parent[ra] = nextID
		parent[rb] = nextID
		nextID++
	}
	return nodes
}

// condensedCluster 压缩树中的一个簇。
type condensedCluster struct {
	parent    int
	birth     float64 // 簇诞生时的 lambda（1/距离）
	stability float64
	children  []int
	// points 落在该簇内的叶子点及其脱离 lambda
	points       []int
	pointLambdas []float64
}

// condenseTree 把单链接树压缩成只含“真分裂”的簇树。
// 小于 minClusterSize 的分支视为点从父簇中脱落。
func condenseTree(tree []linkageNode, n, minClusterSize int) []*condensedCluster {
	if len(tree) == 0 {
		return nil
	}

	root := n + len(tree) - 1
	clusters := []*condensedCluster{{parent: -1, birth: 0}}

	// relabel[node] = 该链接树节点当前归属的压缩簇
	relabel := make(map[int]int, len(tree))
	relabel[root] = 0

	// 自顶向下处理内部节点
	for i := len(tree) - 1; i >= 0; i-- {
		nodeID := n + i
		clusterID, ok := relabel[nodeID]
		if !ok {
			continue
		}
		node := tree[i]
		lambda := lambdaOf(node.distance)

		leftSize := subtreeSize(tree, node.left, n)
		rightSize := subtreeSize(tree, node.right, n)

		switch {
		case leftSize >= minClusterSize && rightSize >= minClusterSize:
			// 真分裂：两个子分支各成新簇。
			// 延续到子簇的点在此处离开父簇，计入父簇稳定性。
			clusters[clusterID].stability += float64(leftSize+rightSize) * (lambda - clusters[clusterID].birth)
			for _, child := range []int{node.left, node.right} {
				childCluster := &condensedCluster{parent: clusterID, birth: lambda}
				clusters = append(clusters, childCluster)
				childID := len(clusters) - 1
				clusters[clusterID].children = append(clusters[clusterID].children, childID)
				relabel[child] = childID
			}
		case leftSize >= minClusterSize:
			// 右分支脱落，簇延续到左分支
			relabel[node.left] = clusterID
			fallOut(tree, node.right, n, lambda, clusters[clusterID])
		case rightSize >= minClusterSize:
			relabel[node.right] = clusterID
			fallOut(tree, node.left, n, lambda, clusters[clusterID])
		default:
			// 两侧都太小：全部点在此脱落
			fallOut(tree, node.left, n, lambda, clusters[clusterID])
			fallOut(tree, node.right, n, lambda, clusters[clusterID])
		}
	}

	// 稳定性：sum(lambda_p - lambda_birth)
	for _, cl := range clusters {
		for _, l := range cl.pointLambdas {
			cl.stability += l - cl.birth
		}
	}
	return clusters
}

// lambdaOf 距离到密度参数的转换。零距离（重复向量）给一个大的有限值。
func lambdaOf(distance float64) float64 {
	if distance <= 0 {
		return math.MaxFloat64 / 4
	}
	return 1.0 / distance
}

// subtreeSize 链接树节点的叶子数。
func subtreeSize(tree []linkageNode, node, n int) int {
	if node < n {
		return 1
	}
	return tree[node-n].size
}

// fallOut 把子树的全部叶子记为在 lambda 处脱离簇 cl。
func fallOut(tree []linkageNode, node, n int, lambda float64, cl *condensedCluster) {
	if node < n {
		cl.points = append(cl.points, node)
		cl.pointLambdas = append(cl.pointLambdas, lambda)
		return
	}
	ln := tree[node-n]
	fallOut(tree, ln.left, n, lambda, cl)
	fallOut(tree, ln.right, n, lambda, cl)
}

// selectClusters 以 Excess of Mass 规则自底向上选簇。
// 根簇永不入选（不允许全部点合成单簇）。
func selectClusters(clusters []*condensedCluster) map[int]bool {
	selected := make(map[int]bool)
	if len(clusters) == 0 {
		return selected
	}

	// subtreeStability[i] = i 的已选后代贡献的稳定性
	subtree := make([]float64, len(clusters))

	// 子簇编号总是大于父簇编号，倒序即自底向上
	for i := len(clusters) - 1; i >= 1; i-- {
		cl := clusters[i]
		var childSum float64
		for _, ch := range cl.children {
			childSum += subtree[ch]
		}

		if len(cl.children) == 0 || cl.stability >= childSum {
			selected[i] = true
			for _, ch := range cl.children {
				deselect(clusters, selected, ch)
			}
			subtree[i] = cl.stability
		} else {
			subtree[i] = childSum
		}
	}
	return selected
}

// deselect 递归取消子树中所有已选簇。
func deselect(clusters []*condensedCluster, selected map[int]bool, id int) {
	delete(selected, id)
	for _, ch := range clusters[id].children {
		deselect(clusters, selected, ch)
	}
}

// assignLabels 把已选簇的点映射为标签，其余为噪声 -1。
// 点归属于包含它的最深已选簇。
func assignLabels(clusters []*condensedCluster, selected map[int]bool, n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	// 先父后子，子簇的归属覆盖父簇
	next := 0
	labelOf := make(map[int]int)
	for id := 1; id < len(clusters); id++ {
		if !selected[id] {
			continue
		}
		labelOf[id] = next
		next++
		assignSubtreePoints(clusters, id, labelOf[id], labels)
	}
	return labels
}

// assignSubtreePoints 把簇及其全部后代簇的点打上标签。
func assignSubtreePoints(clusters []*condensedCluster, id, label int, labels []int) {
	cl := clusters[id]
	for _, p := range cl.points {
		labels[p] = label
	}
	for _, ch := range cl.children {
		assignSubtreePoints(clusters, ch, label, labels)
	}
}
